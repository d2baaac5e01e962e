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
package pileup

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"gonum.org/v1/gonum/stat"
)

// CoverageSummary describes the depth distribution of an index.
type CoverageSummary struct {
	Mean   float64
	Median float64
	Max    int
	// Breadth is the fraction of positions with coverage >= the minimum
	// coverage the summary was computed against.
	Breadth float64
}

// SummarizeCoverage computes depth statistics over all positions of idx.
func SummarizeCoverage(idx *Index, minCoverage int) CoverageSummary {
	n := idx.Len()
	if n == 0 {
		return CoverageSummary{}
	}
	depths := make([]float64, n)
	var s CoverageSummary
	nCovered := 0
	for pos := 1; pos <= n; pos++ {
		c := idx.Coverage(pos)
		depths[pos-1] = float64(c)
		if c > s.Max {
			s.Max = c
		}
		if c >= minCoverage {
			nCovered++
		}
	}
	s.Mean = stat.Mean(depths, nil)
	sort.Float64s(depths)
	s.Median = stat.Quantile(0.5, stat.Empirical, depths, nil)
	s.Breadth = float64(nCovered) / float64(n)
	return s
}

// WriteCoverage writes one "pos\tcoverage" line per position of idx to w.
func WriteCoverage(w io.Writer, idx *Index) error {
	tsvw := tsv.NewWriter(w)
	for pos := 1; pos <= idx.Len(); pos++ {
		tsvw.WriteUint32(uint32(pos))
		tsvw.WriteUint32(uint32(idx.Coverage(pos)))
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteCoverageFile is WriteCoverage on a newly created file.  The output is
// BGZF-compressed when path ends in ".gz".
func WriteCoverageFile(ctx context.Context, path string, idx *Index, parallelism int) (err error) {
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
	if err = WriteCoverage(w, idx); err != nil {
		return
	}
	log.Printf("pileup.WriteCoverageFile: done, depth of coverage written to %s", path)
	return
}
