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
package consensus

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/consensus/feature"
)

// IsStopCodon returns true for TAA, TAG and TGA.
func IsStopCodon(codon string) bool {
	switch codon {
	case "TAA", "TAG", "TGA":
		return true
	}
	return false
}

// ScoreFeature returns the fraction of f's codons, read from the picked calls
// in t, which stay in the annotated reading frame.
//
// Deletions and insertions move the frame; a codon read while the
// accumulated shift is not a multiple of 3 is out of frame.  So is every
// codon after the first stop.  A position without a pick resets the frame,
// on the assumption that reading resumes in phase after an uncovered
// stretch.  A feature yielding no complete codon is an errors.Precondition
// error.
func ScoreFeature(f *feature.Feature, t *PickedTable) (float64, error) {
	start, end := f.Start, f.End
	if end > t.Len() {
		end = t.Len()
	}
	var (
		inFrame, outOfFrame int
		frameOffset         int
		posInCodon          int
		lastTwo             string
		seenStop            bool
	)
	for pos := start; pos <= end; pos++ {
		i := pos - start
		c := t.Get(pos)
		if c == nil {
			frameOffset = 0
			lastTwo = ""
			posInCodon = (i + 1) % 3
			continue
		}
		bases := c.Bases()
		if bases == "" {
			frameOffset--
			continue
		}
		seq := lastTwo + bases
		from := len(lastTwo) - posInCodon
		if from < 0 {
			from += 3
		}
		for ; from+3 <= len(seq); from += 3 {
			if seenStop || frameOffset%3 != 0 {
				outOfFrame++
				continue
			}
			inFrame++
			if IsStopCodon(seq[from : from+3]) {
				seenStop = true
			}
		}
		posInCodon = (posInCodon + len(bases)) % 3
		// An inserted tail shifts the frame for the codons that follow.
		frameOffset += len(bases) - 1
		if len(seq) > 2 {
			seq = seq[len(seq)-2:]
		}
		lastTwo = seq
	}
	if inFrame+outOfFrame == 0 {
		return 0, errors.E(errors.Precondition,
			fmt.Sprintf("consensus.ScoreFeature: no codon in %s [%d, %d]", f.Name(), f.Start, f.End))
	}
	return float64(inFrame) / float64(inFrame+outOfFrame), nil
}
