// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/consensus/consensus"
	"github.com/grailbio/consensus/pileup"
	"github.com/grailbio/hts/bgzf"
)

// Variant is one VCF record.  Deletions are anchored on the position before
// the deleted run, or after it when the run starts at position 1, and carry
// the consensus base there as ALT.  Insertions are anchored on the reference
// base they follow.
type Variant struct {
	Pos   int
	Ref   string
	Alt   string
	Depth int
	Indel bool
}

// VCFHeader holds the meta-information lines of a VCF.
type VCFHeader struct {
	Contig    string
	ContigLen int
	// Reference is the reference FASTA path.
	Reference string
	// Source names the program that produced the calls, usually with its
	// command line.
	Source string
	Date   time.Time
}

// isCalledBase reports whether an emitted symbol is an unambiguous,
// well-supported base.  N, IUPAC codes and soft-masked bases are not.
func isCalledBase(sym byte) bool {
	return pileup.IsBase(sym) && sym&0x20 == 0
}

// Variants derives the VCF records of a consensus walk from its emissions.
// Mismatching called bases are reported as SNVs, each run of deleted
// positions as one deletion, and each insertion after a non-deleted,
// non-N position as one insertion.  A deletion whose anchor is not a called
// base is not reported; one whose anchor is an SNV absorbs that SNV.
func Variants(emissions []consensus.Emission) []Variant {
	var vs []Variant
	absorbed := -1
	for i := 0; i < len(emissions); i++ {
		e := emissions[i]
		if e.Symbol == pileup.Gap {
			j := i + 1
			for j < len(emissions) && emissions[j].Symbol == pileup.Gap {
				j++
			}
			if v, ok := deletion(emissions, i, j); ok {
				if i > 0 {
					vs = dropSNV(vs, v.Pos)
				} else {
					absorbed = emissions[j].Pos
				}
				vs = append(vs, v)
			}
			i = j - 1
			continue
		}
		if isCalledBase(e.Symbol) && e.Symbol != e.Ref && e.Pos != absorbed {
			vs = append(vs, Variant{
				Pos:   e.Pos,
				Ref:   string(e.Ref),
				Alt:   string(e.Symbol),
				Depth: e.Coverage,
			})
		}
		if e.Insertion != "" && e.Symbol != 'N' {
			vs = append(vs, Variant{
				Pos:   e.Pos,
				Ref:   string(e.Ref),
				Alt:   string(e.Ref) + e.Insertion,
				Depth: e.Coverage,
				Indel: true,
			})
		}
	}
	return vs
}

// dropSNV removes the SNV record at pos from the tail of vs, if any.
func dropSNV(vs []Variant, pos int) []Variant {
	for i := len(vs) - 1; i >= 0 && vs[i].Pos == pos; i-- {
		if !vs[i].Indel {
			return append(vs[:i], vs[i+1:]...)
		}
	}
	return vs
}

// deletion builds the record for the deleted run emissions[start:end].
func deletion(emissions []consensus.Emission, start, end int) (Variant, bool) {
	var deleted strings.Builder
	for _, e := range emissions[start:end] {
		deleted.WriteByte(e.Ref)
	}
	v := Variant{Depth: emissions[start].Coverage, Indel: true}
	var anchor consensus.Emission
	switch {
	case start > 0:
		anchor = emissions[start-1]
		v.Pos = anchor.Pos
		v.Ref = string(anchor.Ref) + deleted.String()
	case end < len(emissions):
		anchor = emissions[end]
		v.Pos = emissions[start].Pos
		v.Ref = deleted.String() + string(anchor.Ref)
	default:
		// Everything is deleted; there is no base to anchor on.
		return Variant{}, false
	}
	if !isCalledBase(anchor.Symbol) {
		return Variant{}, false
	}
	v.Alt = string(anchor.Symbol)
	return v, true
}

// WriteVCF writes a VCFv4.3 file holding vs to w.
func WriteVCF(w io.Writer, h VCFHeader, vs []Variant) error {
	tsvw := tsv.NewWriter(w)
	meta := []string{
		"##fileformat=VCFv4.3",
		"##fileDate=" + h.Date.Format("20060102"),
		"##source=" + h.Source,
		"##reference=" + h.Reference,
		fmt.Sprintf("##contig=<ID=%s,length=%d>", h.Contig, h.ContigLen),
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="Read Depth">`,
		`##INFO=<ID=INDEL,Number=0,Type=Flag,Description="Indicates that the variant is an INDEL.">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
	}
	for _, line := range meta {
		tsvw.WriteString(line)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	for _, v := range vs {
		tsvw.WriteString(h.Contig)
		tsvw.WriteInt64(int64(v.Pos))
		tsvw.WriteByte('.')
		tsvw.WriteString(v.Ref)
		tsvw.WriteString(v.Alt)
		tsvw.WriteByte('.')
		tsvw.WriteString("PASS")
		info := fmt.Sprintf("DP=%d", v.Depth)
		if v.Indel {
			info += ";INDEL"
		}
		tsvw.WriteString(info)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteVCFFile is WriteVCF on a newly created file.  The output is
// BGZF-compressed when path ends in ".gz".
func WriteVCFFile(ctx context.Context, path string, h VCFHeader, vs []Variant, parallelism int) (err error) {
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)
	var w io.Writer = dst.Writer(ctx)
	if strings.HasSuffix(path, ".gz") {
		bgzfWriter := bgzf.NewWriter(w, parallelism)
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bgzfWriter
	}
	if err = WriteVCF(w, h, vs); err != nil {
		return
	}
	log.Printf("output.WriteVCFFile: %d record(s) written to %s", len(vs), path)
	return
}
