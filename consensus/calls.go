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
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/consensus/pileup"
)

// Call is one distinct observation at a position, with its support.
type Call struct {
	Pos int
	// Seq is a base or pileup.Gap, optionally followed by inserted bases.
	Seq   string
	Count int
	// Score is Count / coverage.
	Score float64
	// RelScore is Count / (count of the most frequent call at Pos), so the
	// first call at a position always has RelScore 1.
	RelScore float64
}

// Base returns the base (or pileup.Gap) identity of c, ignoring any inserted
// tail.
func (c Call) Base() byte {
	return c.Seq[0]
}

// IsGap returns true iff c's identity is a deletion.
func (c Call) IsGap() bool {
	return c.Seq[0] == pileup.Gap
}

// Bases returns the bases c contributes to a reading frame: Seq without a
// leading gap.
func (c Call) Bases() string {
	if c.IsGap() {
		return c.Seq[1:]
	}
	return c.Seq
}

func (c Call) String() string {
	return fmt.Sprintf("%d:%s(%d, %.3f)", c.Pos, c.Seq, c.Count, c.RelScore)
}

// Aggregate counts the distinct observations at pos.  The result is sorted by
// decreasing count; calls with equal counts keep the order in which they were
// first observed.  Counting is case-insensitive and strand-blind.  Empty obs
// yields no calls.
func Aggregate(pos int, obs []string) []Call {
	if len(obs) == 0 {
		return nil
	}
	counts := make(map[string]int, 4)
	var order []string
	maxCount := 0
	for _, o := range obs {
		if o == "" {
			continue
		}
		o = strings.ToUpper(o)
		n, ok := counts[o]
		if !ok {
			order = append(order, o)
		}
		counts[o] = n + 1
		if n+1 > maxCount {
			maxCount = n + 1
		}
	}
	cov := float64(len(obs))
	calls := make([]Call, len(order))
	for i, seq := range order {
		n := counts[seq]
		calls[i] = Call{
			Pos:      pos,
			Seq:      seq,
			Count:    n,
			Score:    float64(n) / cov,
			RelScore: float64(n) / float64(maxCount),
		}
	}
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].Count > calls[j].Count })
	return calls
}

// CallTable holds the calls at each position of a pileup.Index.  Slot 0 is
// unused.
type CallTable [][]Call

// At returns the calls at pos, or nil if pos is out of range.
func (t CallTable) At(pos int) []Call {
	if pos < 1 || pos >= len(t) {
		return nil
	}
	return t[pos]
}

// Len returns the number of positions in t.
func (t CallTable) Len() int {
	if len(t) == 0 {
		return 0
	}
	return len(t) - 1
}

// AggregateIndex runs Aggregate on every position of idx.  Positions are
// independent, so the work is split into parallelism contiguous blocks.
func AggregateIndex(idx *pileup.Index, parallelism int) (CallTable, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	n := idx.Len()
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > n {
		parallelism = n
	}
	table := make(CallTable, n+1)
	if n == 0 {
		return table, nil
	}
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startPos := 1 + (jobIdx*n)/parallelism
		endPos := 1 + ((jobIdx+1)*n)/parallelism
		for pos := startPos; pos < endPos; pos++ {
			p := idx.At(pos)
			if p.Pos != pos {
				return errors.E(errors.Invalid, fmt.Sprintf("consensus.AggregateIndex: position %d stored at %d", p.Pos, pos))
			}
			table[pos] = Aggregate(pos, p.Observations)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("consensus.AggregateIndex: %d positions, %d jobs", n, parallelism)
	return table, nil
}

// BaseCount is the number of calls sharing one base identity.
type BaseCount struct {
	Base  byte
	Count int
}

// baseCounts merges calls by Base(), so that "A" and "AT" count toward the
// same identity; every base other than A/C/G/T and Gap counts as N.
// Identities for which skip returns true are left out.  The
// result is sorted by decreasing count, ties in first-seen order.
func baseCounts(calls []Call, skip func(byte) bool) []BaseCount {
	var (
		tally [pileup.NBaseEnum]int
		seen  [pileup.NBaseEnum]bool
		order []byte
	)
	for i := range calls {
		b := calls[i].Base()
		if skip != nil && skip(b) {
			continue
		}
		e := pileup.ASCIIToEnum(b)
		if !seen[e] {
			seen[e] = true
			order = append(order, e)
		}
		tally[e] += calls[i].Count
	}
	var counts []BaseCount
	for _, e := range order {
		counts = append(counts, BaseCount{pileup.EnumToASCIITable[e], tally[e]})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

func isGapByte(b byte) bool { return b == pileup.Gap }
