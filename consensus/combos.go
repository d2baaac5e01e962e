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
	"container/heap"
)

// combo is a set of candidate indices, in increasing order, and the product
// of their relative scores.
type combo struct {
	idx     []int
	product float64
}

type comboHeap []*combo

func (h comboHeap) Len() int            { return len(h) }
func (h comboHeap) Less(i, j int) bool  { return h[i].product > h[j].product }
func (h comboHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *comboHeap) Push(x interface{}) { *h = append(*h, x.(*combo)) }
func (h *comboHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Combinations lazily enumerates the significant combinations of a candidate
// list: the sets of candidates whose RelScore product exceeds a threshold.
// Combinations are produced in order of decreasing product, so the most
// plausible hypotheses are tried first.
type Combinations struct {
	cands        []*Call
	significance float64
	h            comboHeap
	buf          []*Call
}

// NewCombinations prepares the enumeration over cands, which must be sorted
// by decreasing RelScore.  It fails with a cause of ErrCombinatorialOverflow
// if the largest feasible combination size k has more than maxCombos
// combinations of that size.
func NewCombinations(cands []*Call, significance float64, maxCombos int) (*Combinations, error) {
	it := &Combinations{cands: cands, significance: significance}
	if len(cands) == 0 {
		return it, nil
	}
	// The k best candidates have the largest product of any k-set, so the
	// first k at which their product falls to the threshold bounds the size.
	k, product := 0, 1.0
	for k < len(cands) && product*cands[k].RelScore > significance {
		product *= cands[k].RelScore
		k++
	}
	if k == 0 {
		return it, nil
	}
	if binomialExceeds(len(cands), k, maxCombos) {
		return nil, combinatorialOverflow(len(cands), k, maxCombos)
	}
	heap.Push(&it.h, &combo{idx: []int{0}, product: cands[0].RelScore})
	return it, nil
}

// Next returns the next combination and its product.  The returned slice is
// only valid until the following call.  ok is false once the enumeration is
// exhausted.
func (it *Combinations) Next() (calls []*Call, product float64, ok bool) {
	for it.h.Len() > 0 {
		c := heap.Pop(&it.h).(*combo)
		if c.product <= it.significance {
			it.h = it.h[:0]
			return nil, 0, false
		}
		it.expand(c)
		if it.samePosition(c.idx) {
			continue
		}
		it.buf = it.buf[:0]
		for _, i := range c.idx {
			it.buf = append(it.buf, it.cands[i])
		}
		return it.buf, c.product, true
	}
	return nil, 0, false
}

// expand pushes the two successors of c: c with its last index advanced, and
// c extended by the index after its last.  Every increasing index sequence
// is reached exactly once, and no successor has a larger product than c.
func (it *Combinations) expand(c *combo) {
	last := c.idx[len(c.idx)-1]
	next := last + 1
	if next >= len(it.cands) {
		return
	}
	rel := it.cands[next].RelScore
	if p := c.product * rel; p > it.significance {
		idx := make([]int, len(c.idx)+1)
		copy(idx, c.idx)
		idx[len(c.idx)] = next
		heap.Push(&it.h, &combo{idx: idx, product: p})
	}
	idx := make([]int, len(c.idx))
	copy(idx, c.idx)
	idx[len(c.idx)-1] = next
	p := 1.0
	for _, i := range idx {
		p *= it.cands[i].RelScore
	}
	if p > it.significance {
		heap.Push(&it.h, &combo{idx: idx, product: p})
	}
}

// samePosition returns true if two of the indexed candidates are alternative
// calls at one position.  Such a set can't be applied to the picked table.
func (it *Combinations) samePosition(idx []int) bool {
	for i := 1; i < len(idx); i++ {
		for j := 0; j < i; j++ {
			if it.cands[idx[i]].Pos == it.cands[idx[j]].Pos {
				return true
			}
		}
	}
	return false
}

// binomialExceeds returns true iff C(n, k) > limit.
func binomialExceeds(n, k, limit int) bool {
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 0; i < k; i++ {
		c = c * float64(n-i) / float64(i+1)
		if c > float64(limit)+0.5 {
			return true
		}
	}
	return false
}
