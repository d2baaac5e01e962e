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

	"github.com/grailbio/base/errors"
)

// Position contains everything aligned to a single 1-based reference
// position.
type Position struct {
	Pos    int
	RefNuc byte
	// Observations contains one normalized entry per aligned read: a base, Gap,
	// or either of those followed by an inserted tail.
	Observations []string
}

// Coverage is the number of observations at the position.
func (p *Position) Coverage() int {
	return len(p.Observations)
}

// Index is the dense, 1-based position index over a single reference
// sequence.  Every position in [1, Len()] exists, including uncovered ones.
type Index struct {
	refName string
	ref     []byte
	// positions[0] is unused so that positions can be addressed directly.
	positions []Position
}

// NewIndex returns an index with zero coverage at every position of ref.
func NewIndex(refName string, ref []byte) *Index {
	idx := &Index{
		refName:   refName,
		ref:       ref,
		positions: make([]Position, len(ref)+1),
	}
	for i, c := range ref {
		idx.positions[i+1] = Position{Pos: i + 1, RefNuc: c}
	}
	return idx
}

// NewIndexFromPositions builds an index from externally produced position
// records.  The records must be sorted, start at 1, and have no gaps; an
// errors.Invalid error is returned otherwise.
func NewIndexFromPositions(refName string, positions []Position) (*Index, error) {
	ref := make([]byte, len(positions))
	idx := &Index{
		refName:   refName,
		ref:       ref,
		positions: make([]Position, len(positions)+1),
	}
	for i, p := range positions {
		if p.Pos != i+1 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pileup.NewIndexFromPositions: position index is not contiguous: expected %d, got %d", i+1, p.Pos))
		}
		ref[i] = p.RefNuc
		obs := make([]string, 0, len(p.Observations))
		for _, o := range p.Observations {
			if n := NormalizeObservation(o); n != "" {
				obs = append(obs, n)
			}
		}
		p.Observations = obs
		idx.positions[i+1] = p
	}
	return idx, nil
}

// RefName returns the name of the indexed reference sequence.
func (idx *Index) RefName() string {
	return idx.refName
}

// Ref returns the reference sequence.  The caller must not modify it.
func (idx *Index) Ref() []byte {
	return idx.ref
}

// Len returns the reference length, which is also the last valid position.
func (idx *Index) Len() int {
	return len(idx.ref)
}

// At returns the position record for 1-based pos.  It panics if pos is out of
// range.
func (idx *Index) At(pos int) *Position {
	if pos < 1 || pos > len(idx.ref) {
		panic(pos)
	}
	return &idx.positions[pos]
}

// Coverage returns the number of observations at pos, or 0 when pos is outside
// the reference.
func (idx *Index) Coverage(pos int) int {
	if pos < 1 || pos > len(idx.ref) {
		return 0
	}
	return len(idx.positions[pos].Observations)
}

// Range returns the position records for the closed interval [start, end],
// clipped to the reference.
func (idx *Index) Range(start, end int) []Position {
	if start < 1 {
		start = 1
	}
	if end > len(idx.ref) {
		end = len(idx.ref)
	}
	if start > end {
		return nil
	}
	return idx.positions[start : end+1]
}

// Add appends already-normalized observations at pos.
func (idx *Index) Add(pos int, obs ...string) {
	p := idx.At(pos)
	p.Observations = append(p.Observations, obs...)
}

// Reset discards all observations at pos.
func (idx *Index) Reset(pos int) {
	p := idx.At(pos)
	p.Observations = p.Observations[:0]
}

// Validate checks the dense-key invariant.  It only fails if an index was
// mutated behind its API.
func (idx *Index) Validate() error {
	if len(idx.positions) != len(idx.ref)+1 {
		return errors.E(errors.Invalid, "pileup.Index: position count does not match reference length")
	}
	for i := 1; i < len(idx.positions); i++ {
		if idx.positions[i].Pos != i {
			return errors.E(errors.Invalid, fmt.Sprintf("pileup.Index: non-monotonic position key %d at slot %d", idx.positions[i].Pos, i))
		}
	}
	return nil
}

// GapFraction returns the fraction of observations at pos whose aligned
// symbol is Gap.  It returns 0 for uncovered positions.
func (idx *Index) GapFraction(pos int) float64 {
	if pos < 1 || pos > len(idx.ref) {
		return 0
	}
	obs := idx.positions[pos].Observations
	if len(obs) == 0 {
		return 0
	}
	n := 0
	for _, o := range obs {
		if ASCIIToEnum(o[0]) == BaseGap {
			n++
		}
	}
	return float64(n) / float64(len(obs))
}

// InsertionFraction returns the fraction of observations at pos which carry
// an inserted tail.
func (idx *Index) InsertionFraction(pos int) float64 {
	obs := idx.At(pos).Observations
	if len(obs) == 0 {
		return 0
	}
	n := 0
	for _, o := range obs {
		if len(o) > 1 {
			n++
		}
	}
	return float64(n) / float64(len(obs))
}

// MajorityInsertion returns the inserted subsequence of the most common
// observation at pos.  ok is false when the most common observation carries no
// insertion, i.e. there is no consistent majority insertion.  Ties between
// equally common observations go to the one seen first.
func (idx *Index) MajorityInsertion(pos int) (ins string, ok bool) {
	obs := idx.At(pos).Observations
	if len(obs) == 0 {
		return "", false
	}
	counts := make(map[string]int, 4)
	var best string
	bestN := 0
	for _, o := range obs {
		counts[o]++
	}
	for _, o := range obs {
		if n := counts[o]; n > bestN {
			best, bestN = o, n
		}
	}
	if len(best) < 2 {
		return "", false
	}
	return best[1:], true
}
