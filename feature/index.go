// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package feature

import (
	"sort"

	"github.com/biogo/store/llrb"
)

// span is a maximal run of positions covered by at least one indexed
// feature.
type span struct {
	start, end int
	features   []*Feature
}

// Compare compares two span objects for use in llrb.  Spans in one tree never
// overlap, so ordering by start is total.
func (s *span) Compare(c llrb.Comparable) int {
	return s.start - c.(*span).start
}

// Index answers point-membership queries against a fixed set of features.
// Overlapping and adjacent features are merged into one span.
type Index struct {
	spans llrb.Tree
}

// NewIndex indexes the features of fs for which keep returns true.  A nil
// keep indexes everything.
func NewIndex(fs []*Feature, keep func(*Feature) bool) *Index {
	var sel []*Feature
	for _, f := range fs {
		if (keep == nil || keep(f)) && f.Len() > 0 {
			sel = append(sel, f)
		}
	}
	sort.SliceStable(sel, func(i, j int) bool { return sel[i].Start < sel[j].Start })
	idx := &Index{}
	var cur *span
	for _, f := range sel {
		if cur != nil && f.Start <= cur.end+1 {
			if f.End > cur.end {
				cur.end = f.End
			}
			cur.features = append(cur.features, f)
			continue
		}
		if cur != nil {
			idx.spans.Insert(cur)
		}
		cur = &span{start: f.Start, end: f.End, features: []*Feature{f}}
	}
	if cur != nil {
		idx.spans.Insert(cur)
	}
	return idx
}

func (idx *Index) find(pos int) *span {
	c := idx.spans.Floor(&span{start: pos})
	if c == nil {
		return nil
	}
	s := c.(*span)
	if pos > s.end {
		return nil
	}
	return s
}

// Contains returns true iff some indexed feature covers pos.
func (idx *Index) Contains(pos int) bool {
	return idx.find(pos) != nil
}

// Covering returns the indexed features covering pos, in start order.
func (idx *Index) Covering(pos int) []*Feature {
	s := idx.find(pos)
	if s == nil {
		return nil
	}
	var fs []*Feature
	for _, f := range s.features {
		if f.Contains(pos) {
			fs = append(fs, f)
		}
	}
	return fs
}

// NumSpans returns the number of disjoint spans in the index.
func (idx *Index) NumSpans() int {
	return idx.spans.Len()
}
