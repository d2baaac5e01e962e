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
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// PlotCoverage renders the depth of idx as a text line chart of at most
// width columns and the given height.  Each column holds the mean depth of
// an equal share of the positions.
func PlotCoverage(idx *Index, width, height int) string {
	n := idx.Len()
	if n == 0 || width <= 0 {
		return ""
	}
	if width > n {
		width = n
	}
	bins := make([]float64, width)
	for i := range bins {
		start := i*n/width + 1
		end := (i + 1) * n / width
		total := 0
		for pos := start; pos <= end; pos++ {
			total += idx.Coverage(pos)
		}
		bins[i] = float64(total) / float64(end-start+1)
	}
	return asciigraph.Plot(bins,
		asciigraph.Height(height),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("%s depth, %d positions per column", idx.RefName(), n/width)))
}
