// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package feature

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// File is the content of a GFF3 file.
type File struct {
	// Header holds the '#' lines preceding the first record, without their
	// line terminators.
	Header   []string
	Features []*Feature
}

// gffRow is one tab-separated GFF3 line, in column order.
type gffRow struct {
	SeqID      string
	Source     string
	Type       string
	Start      int
	End        int
	Score      string
	Strand     string
	Phase      string
	Attributes string
}

const maxGFFLine = 16 << 20

// ParseAttributes splits the ninth GFF3 column into key=value pairs.  "." and
// the empty string yield no attributes.  Values are kept escaped.
func ParseAttributes(s string) ([]Attribute, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return nil, nil
	}
	var attrs []Attribute
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("feature.ParseAttributes: malformed attribute %q", part))
		}
		attrs = append(attrs, Attribute{Key: part[:eq], Value: part[eq+1:]})
	}
	return attrs, nil
}

// FormatAttributes is the inverse of ParseAttributes.
func FormatAttributes(attrs []Attribute) string {
	if len(attrs) == 0 {
		return "."
	}
	var sb strings.Builder
	for i, a := range attrs {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(a.Value)
	}
	return sb.String()
}

// Parse reads GFF3 data from r.  Leading '#' lines are kept in File.Header;
// later comments are skipped.  Parsing stops at a "##FASTA" directive.
func Parse(r io.Reader) (*File, error) {
	var (
		gff    = &File{}
		body   bytes.Buffer
		inBody bool
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxGFFLine)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "##FASTA") {
			break
		}
		if !inBody && strings.HasPrefix(line, "#") {
			gff.Header = append(gff.Header, line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		inBody = true
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	reader := tsv.NewReader(&body)
	reader.Comment = '#'
	reader.LazyQuotes = true
	var row gffRow
	for {
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "feature.Parse", err)
		}
		attrs, err := ParseAttributes(row.Attributes)
		if err != nil {
			return nil, err
		}
		if row.Start < 1 || row.End < row.Start {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("feature.Parse: bad span %d-%d on %s", row.Start, row.End, row.SeqID))
		}
		gff.Features = append(gff.Features, &Feature{
			SeqID:      row.SeqID,
			Source:     row.Source,
			Type:       row.Type,
			Start:      row.Start,
			End:        row.End,
			Score:      row.Score,
			Strand:     row.Strand,
			Phase:      row.Phase,
			Attributes: attrs,
		})
	}
	return gff, nil
}

// Read is Parse on the (possibly compressed) file at path.
func Read(ctx context.Context, path string) (gff *File, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		defer u.Close() // nolint: errcheck
		r = u
	}
	if gff, err = Parse(r); err != nil {
		return nil, errors.E(err, path)
	}
	log.Printf("feature.Read: %d features from %s", len(gff.Features), path)
	return
}

// Encode writes gff to w in GFF3 format.
func (gff *File) Encode(w io.Writer) error {
	for _, line := range gff.Header {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	tsvw := tsv.NewWriter(w)
	for _, f := range gff.Features {
		tsvw.WriteString(f.SeqID)
		tsvw.WriteString(f.Source)
		tsvw.WriteString(f.Type)
		tsvw.WriteString(strconv.Itoa(f.Start))
		tsvw.WriteString(strconv.Itoa(f.End))
		tsvw.WriteString(f.Score)
		tsvw.WriteString(f.Strand)
		tsvw.WriteString(f.Phase)
		tsvw.WriteString(FormatAttributes(f.Attributes))
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// Write creates path and writes gff to it.
func Write(ctx context.Context, path string, gff *File) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, out, &err)
	return gff.Encode(out.Writer(ctx))
}
