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
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/consensus/feature"
	"github.com/grailbio/consensus/pileup"
)

// Emission is what the walk emitted for one reference position.
type Emission struct {
	Pos int
	Ref byte
	// Symbol is 'N', '-', an upper-case IUPAC code or base, or a lower-case
	// base whose support is below the minimum coverage.
	Symbol byte
	// Insertion holds the bases emitted after Symbol, if any.
	Insertion string
	Coverage  int
}

// Result is the output of one consensus walk.
type Result struct {
	// Consensus has one symbol per reference position, with insertions
	// inlined.
	Consensus []byte
	// Emissions[i] describes position i+1.
	Emissions []Emission
	// Insertions maps a reference position to the bases inserted after it.
	Insertions map[int]string
	// Features are the input features in consensus coordinates.
	Features []*feature.Feature
	// Scores holds the frame scores of the + strand coding features.
	Scores []FeatureScore
}

type walker struct {
	idx    *pileup.Index
	calls  CallTable
	table  *PickedTable
	coding *feature.Index
	opts   Opts
	// emitted[pos] is the symbol emitted at pos so far.
	emitted []byte
	// deleted[pos] is set for positions consumed by an earlier deletion run.
	deleted []bool
}

// Walk emits the consensus for idx from the picked calls in t.  Positions are
// visited strictly left to right.  features are used for gap decisions and
// translated to consensus coordinates in Result.Features; they are not
// modified.
func Walk(idx *pileup.Index, calls CallTable, t *PickedTable, features []*feature.Feature, opts Opts) (*Result, error) {
	n := idx.Len()
	w := &walker{
		idx:     idx,
		calls:   calls,
		table:   t,
		coding:  feature.NewIndex(features, (*feature.Feature).IsCoding),
		opts:    opts,
		emitted: make([]byte, n+1),
		deleted: make([]bool, n+1),
	}
	corrector := NewCoordinateCorrector(features)
	res := &Result{
		Consensus:  make([]byte, 0, n),
		Emissions:  make([]Emission, 0, n),
		Insertions: make(map[int]string),
	}
	log.Debug.Printf("consensus.Walk: %s: %d coding span(s)", idx.RefName(), w.coding.NumSpans())
	var nN, nAmbig, nDel int
	for pos := 1; pos <= n; pos++ {
		sym, ambiguous, err := w.symbol(pos)
		if err != nil {
			return nil, err
		}
		w.emitted[pos] = sym
		switch {
		case sym == 'N':
			nN++
		case sym == pileup.Gap:
			nDel++
		case ambiguous:
			nAmbig++
		}
		e := Emission{
			Pos:      pos,
			Ref:      idx.At(pos).RefNuc,
			Symbol:   sym,
			Coverage: idx.Coverage(pos),
		}
		if ins, ok := w.insertion(pos); ok {
			e.Insertion = ins
			res.Insertions[pos] = ins
		}
		res.Consensus = append(res.Consensus, sym)
		res.Consensus = append(res.Consensus, e.Insertion...)
		res.Emissions = append(res.Emissions, e)
		corrector.Observe(sym, e.Insertion)
	}
	res.Features = corrector.Features()
	log.Printf("consensus.Walk: %d positions: %d N, %d deleted, %d ambiguous, %d insertions",
		n, nN, nDel, nAmbig, len(res.Insertions))
	return res, nil
}

// symbol decides the primary symbol at pos.
func (w *walker) symbol(pos int) (sym byte, ambiguous bool, err error) {
	cov := w.idx.Coverage(pos)
	if cov < w.opts.MinCoverage {
		return 'N', false, nil
	}
	if w.deleted[pos] {
		return pileup.Gap, false, nil
	}
	pick := w.table.Get(pos)
	if pick == nil {
		return 'N', false, nil
	}
	if w.table.Committed(pos) {
		return w.softMask(*pick), false, nil
	}
	if !pick.IsGap() {
		if w.idx.GapFraction(pos) >= w.opts.MinorityDeletion && w.deletionRun(pos) {
			return pileup.Gap, false, nil
		}
		return w.baseSymbol(*pick, cov, nil)
	}
	if !w.coding.Contains(pos) || w.gapSupported(pos) {
		return pileup.Gap, false, nil
	}
	// A lone gap inside a coding feature is taken to be a miscall.
	for _, c := range w.calls.At(pos) {
		if !c.IsGap() {
			log.Debug.Printf("consensus.Walk: %d: unsupported gap in %s replaced by %v", pos, featureNames(w.coding.Covering(pos)), c)
			return w.baseSymbol(c, cov, isGapByte)
		}
	}
	return pileup.Gap, false, nil
}

func featureNames(fs []*feature.Feature) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name()
	}
	return strings.Join(names, ",")
}

// baseSymbol returns the IUPAC code for pos if ambiguity codes are enabled
// and the top base identities, excluding those matching skip, are equally
// represented.  Otherwise it returns the soft-masked base of c.
func (w *walker) baseSymbol(c Call, cov int, skip func(byte) bool) (byte, bool, error) {
	if w.opts.Ambiguity {
		top := baseCounts(w.calls.At(c.Pos), skip)
		ambiguous, code, err := Resolve(top, cov, w.opts.AmbiguityDistance)
		if err != nil {
			return 0, false, err
		}
		if ambiguous {
			return code, true, nil
		}
	}
	return w.softMask(c), false, nil
}

func (w *walker) softMask(c Call) byte {
	b := c.Base()
	if b != pileup.Gap && c.Count < w.opts.MinCoverage {
		return b | 0x20
	}
	return b
}

// gapPicked returns true if pos is covered and its pick is a gap.
func (w *walker) gapPicked(pos int) bool {
	if w.idx.Coverage(pos) < w.opts.MinCoverage {
		return false
	}
	c := w.table.Get(pos)
	return c != nil && c.IsGap()
}

// gapSupported returns true if a position within two of pos is gap-picked,
// or was emitted as a gap.
func (w *walker) gapSupported(pos int) bool {
	for q := pos - 2; q <= pos+2; q++ {
		if q == pos || q < 1 || q > w.idx.Len() {
			continue
		}
		if w.gapPicked(q) || (q < pos && w.emitted[q] == pileup.Gap) {
			return true
		}
	}
	return false
}

// deletionRun decides whether the base picked at pos, a minority-deletion
// position, is part of a frame-preserving deletion.
//
// The deletion group is the run of gaps emitted just before pos plus the run
// of base-picked minority-deletion positions starting at pos.  The upcoming
// stretch is the run of gap-picked positions following the group.  If the
// upcoming stretch is a multiple of 3 the group must be too; otherwise group
// and stretch together must be.  On success, every position from pos through
// the upcoming stretch is marked deleted.
func (w *walker) deletionRun(pos int) bool {
	n := w.idx.Len()
	preceding := 0
	for q := pos - 1; q >= 1 && w.emitted[q] == pileup.Gap; q-- {
		preceding++
	}
	groupEnd := pos
	for q := pos + 1; q <= n; q++ {
		c := w.table.Get(q)
		if w.idx.Coverage(q) < w.opts.MinCoverage || c == nil || c.IsGap() ||
			w.table.Committed(q) || w.idx.GapFraction(q) < w.opts.MinorityDeletion {
			break
		}
		groupEnd = q
	}
	runEnd := groupEnd
	for q := groupEnd + 1; q <= n && w.gapPicked(q); q++ {
		runEnd = q
	}
	group := preceding + groupEnd - pos + 1
	upcoming := runEnd - groupEnd
	if !tripletPreserving(group, upcoming) {
		return false
	}
	for q := pos + 1; q <= runEnd; q++ {
		w.deleted[q] = true
	}
	log.Debug.Printf("consensus.Walk: %d-%d: minority deletion taken (group %d, upcoming %d)", pos, runEnd, group, upcoming)
	return true
}

// tripletPreserving reports whether deleting a group followed by an upcoming
// gap stretch keeps the reading frame.
func tripletPreserving(group, upcoming int) bool {
	if upcoming%3 == 0 {
		return group%3 == 0
	}
	return (group+upcoming)%3 == 0
}

// insertion returns the majority insertion after pos if enough reads carry
// one.
func (w *walker) insertion(pos int) (string, bool) {
	if w.idx.Coverage(pos) < w.opts.MinCoverage || w.idx.InsertionFraction(pos) <= w.opts.InsertionSupport {
		return "", false
	}
	return w.idx.MajorityInsertion(pos)
}
