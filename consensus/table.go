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
	"github.com/grailbio/consensus/pileup"
)

// PickedTable holds the call currently representing each position.  It is
// the only mutable state shared between ORF restoration and the consensus
// walk.  Every mutation returns what it replaced, so hypotheses can be rolled
// back exactly.
//
// A PickedTable is not safe for concurrent use.
type PickedTable struct {
	// picks[pos] is nil for positions below the minimum coverage.
	picks     []*Call
	committed []bool
}

// NewPickedTable picks the first (most frequent) call at every position of
// calls whose coverage in idx is at least minCoverage.
func NewPickedTable(calls CallTable, idx *pileup.Index, minCoverage int) *PickedTable {
	n := calls.Len()
	t := &PickedTable{
		picks:     make([]*Call, n+1),
		committed: make([]bool, n+1),
	}
	for pos := 1; pos <= n; pos++ {
		cs := calls[pos]
		if len(cs) == 0 || idx.Coverage(pos) < minCoverage {
			continue
		}
		t.picks[pos] = &cs[0]
	}
	return t
}

// Len returns the number of positions.
func (t *PickedTable) Len() int {
	return len(t.picks) - 1
}

// Get returns the call picked at pos, or nil if there is none.
func (t *PickedTable) Get(pos int) *Call {
	if pos < 1 || pos >= len(t.picks) {
		return nil
	}
	return t.picks[pos]
}

// Committed returns true if the pick at pos was set by Commit.
func (t *PickedTable) Committed(pos int) bool {
	if pos < 1 || pos >= len(t.committed) {
		return false
	}
	return t.committed[pos]
}

type snapshotEntry struct {
	pos  int
	prev *Call
}

// Snapshot records the picks replaced by one Insert.
type Snapshot []snapshotEntry

// Insert makes each of calls the pick at its position and returns the
// replaced picks.
func (t *PickedTable) Insert(calls []*Call) Snapshot {
	snap := make(Snapshot, len(calls))
	for i, c := range calls {
		snap[i] = snapshotEntry{c.Pos, t.picks[c.Pos]}
		t.picks[c.Pos] = c
	}
	return snap
}

// Restore undoes the Insert which returned snap.  Entries are replayed in
// reverse, so a snapshot touching one position twice restores the oldest
// pick.
func (t *PickedTable) Restore(snap Snapshot) {
	for i := len(snap) - 1; i >= 0; i-- {
		t.picks[snap[i].pos] = snap[i].prev
	}
}

// Commit inserts calls permanently.
func (t *PickedTable) Commit(calls []*Call) {
	t.Insert(calls)
	for _, c := range calls {
		t.committed[c.Pos] = true
	}
}
