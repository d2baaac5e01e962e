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
	"github.com/grailbio/consensus/pileup"
)

// iupacTable maps a bitmask of A=1, C=2, G=4, T=8 to the IUPAC code of that
// base set.
const iupacTable = "?ACMGRSVTWYHKDBN"

var iupacBit = [256]uint8{'A': 1, 'C': 2, 'G': 4, 'T': 8}

// IUPAC returns the ambiguity code for the set of bases.  Duplicates are
// allowed and order is irrelevant.  Any non-ACGT member (N, gap) makes the
// result N.  An empty set is an errors.Integrity error.
func IUPAC(bases ...byte) (byte, error) {
	if len(bases) == 0 {
		return 0, errors.E(errors.Integrity, "consensus.IUPAC: empty base set")
	}
	var mask uint8
	for _, b := range bases {
		bit := iupacBit[b&^0x20]
		if bit == 0 {
			return 'N', nil
		}
		mask |= bit
	}
	return iupacTable[mask], nil
}

// ambiguityType returns the number of equally represented calls (2, 3 or 4)
// given the counts of the top four out of coverage, or 0 if the top call is
// clearly dominant.  Two calls are near when their counts differ by at most
// tau percent of coverage; the comparison is exact at the boundary.
func ambiguityType(counts [4]int, coverage int, tau float64) int {
	limit := tau * float64(coverage)
	near := func(i, j int) bool {
		d := counts[i] - counts[j]
		if d < 0 {
			d = -d
		}
		return float64(d*100) <= limit
	}
	if !near(0, 1) {
		return 0
	}
	if near(0, 2) && near(1, 2) {
		if near(0, 3) && near(1, 3) && near(2, 3) {
			return 4
		}
		return 3
	}
	return 2
}

// Resolve decides whether the top base identities at a position are
// ambiguous, i.e. represented within tau percentage points of coverage of
// each other, and returns the IUPAC code if so.  top is sorted by decreasing
// count; missing entries count as zero.  A gap among the top two means the
// position is not ambiguous.
func Resolve(top []BaseCount, coverage int, tau float64) (ambiguous bool, code byte, err error) {
	if coverage == 0 || len(top) == 0 {
		return false, 0, nil
	}
	var (
		bases  [4]byte
		counts [4]int
	)
	for i := 0; i < 4 && i < len(top); i++ {
		bases[i] = top[i].Base
		counts[i] = top[i].Count
	}
	if bases[0] == pileup.Gap || bases[1] == pileup.Gap {
		return false, 0, nil
	}
	typ := ambiguityType(counts, coverage, tau)
	if typ == 0 {
		return false, 0, nil
	}
	if typ == 4 {
		return true, 'N', nil
	}
	members := bases[:typ]
	for i, b := range members {
		if b == 0 {
			return false, 0, errors.E(errors.Integrity,
				fmt.Sprintf("consensus.Resolve: ambiguity among %d calls but only %d observed (%v of %d)", typ, i, counts, coverage))
		}
	}
	code, err = IUPAC(members...)
	return err == nil, code, err
}
