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
// Package output writes the products of a consensus run: the consensus
// FASTA record and a VCF of the differences between the consensus and the
// reference.  Corrected feature annotations are written with feature.Write.
package output

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// DefaultLineWidth is the number of bases per FASTA sequence line.
const DefaultLineWidth = 60

var newline = []byte{'\n'}

// SequenceName returns the FASTA record name of the consensus of sample built
// at the given minimum coverage, e.g. "sample1_cov_ge_30".
func SequenceName(sample string, minCoverage int) string {
	return fmt.Sprintf("%s_cov_ge_%d", sample, minCoverage)
}

// FASTAWriter writes FASTA records.
type FASTAWriter struct {
	w     io.Writer
	width int
	err   error
}

// NewFASTAWriter constructs a writer that wraps sequence lines at width
// bases.  width <= 0 writes each sequence on a single line.
func NewFASTAWriter(w io.Writer, width int) *FASTAWriter {
	return &FASTAWriter{w: w, width: width}
}

// Write writes one record.  An error is returned if any write failed,
// including a write of an earlier record.
func (w *FASTAWriter) Write(name string, seq []byte) error {
	w.writeln([]byte(">" + name))
	if w.width <= 0 || len(seq) <= w.width {
		w.writeln(seq)
		return w.err
	}
	for start := 0; start < len(seq); start += w.width {
		end := start + w.width
		if end > len(seq) {
			end = len(seq)
		}
		w.writeln(seq[start:end])
	}
	return w.err
}

func (w *FASTAWriter) writeln(line []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}

// WriteFASTA writes the single record name/seq to a newly created file at
// path.
func WriteFASTA(ctx context.Context, path, name string, seq []byte, width int) (err error) {
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)
	if err = NewFASTAWriter(dst.Writer(ctx), width).Write(name, seq); err != nil {
		return
	}
	log.Printf("output.WriteFASTA: %s (%d bases) written to %s", name, len(seq), path)
	return
}
