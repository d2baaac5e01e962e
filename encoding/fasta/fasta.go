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

// Package fasta parses FASTA data.  FASTA files consist of a number of named
// sequences that may be interrupted by newlines.  For example:
//
// >MN908947.3 Severe acute respiratory syndrome coronavirus 2
// ATTAAAGGTT
// TATACCTTCC
// >second
// ACGT
//
// Sequence names are the stretch of characters excluding spaces immediately
// after '>'; '>chr1 A viral sequence' is named 'chr1'.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const bufferInitSize = 1024 * 1024 * 300 // 300 MB

// Fasta represents FASTA-formatted data held in memory.
type Fasta interface {
	// Get returns the bases of the named sequence in the 0-based half-open
	// interval [start, end).
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the named sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance
	// in the FASTA data.
	SeqNames() []string
}

// Opt configures New.
type Opt func(*fasta)

// OptUpperCase makes New upper-case every sequence, so soft-masked
// reference bases compare equal to read bases.
func OptUpperCase(f *fasta) { f.upper = true }

type fasta struct {
	seqs     map[string][]byte
	seqNames []string
	upper    bool
}

// New reads all of r into memory.  Blank lines and trailing whitespace are
// ignored.  Data before the first header, a repeated sequence name and a
// sequence without bases are errors.
func New(r io.Reader, opts ...Opt) (Fasta, error) {
	f := &fasta{seqs: make(map[string][]byte)}
	for _, opt := range opts {
		opt(f)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	var (
		seqName string
		seq     bytes.Buffer
	)
	flush := func() error {
		if seqName == "" {
			return nil
		}
		if seq.Len() == 0 {
			return errors.Errorf("sequence %s has no bases", seqName)
		}
		if _, ok := f.seqs[seqName]; ok {
			return errors.Errorf("duplicate sequence name %s", seqName)
		}
		b := append([]byte(nil), seq.Bytes()...)
		if f.upper {
			b = bytes.ToUpper(b)
		}
		f.seqs[seqName] = b
		f.seqNames = append(f.seqNames, seqName)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), " \t\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			seqName = strings.Split(string(line[1:]), " ")[0]
			if seqName == "" {
				return nil, errors.Errorf("malformed FASTA file: unnamed sequence")
			}
			continue
		}
		if seqName == "" {
			return nil, errors.Errorf("malformed FASTA file: bases before the first header")
		}
		seq.Write(line)
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(f.seqNames) == 0 {
		return nil, errors.Errorf("empty FASTA file")
	}
	return f, nil
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return string(s[start:end]), nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
