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
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/consensus/feature"
)

// FeatureScore reports the frame score of one feature before and after ORF
// restoration.
type FeatureScore struct {
	Feature *feature.Feature
	Before  float64
	After   float64
	// Restored lists the alternative calls committed for the feature.
	Restored []*Call
	// Skipped is set when the search was abandoned because of the
	// combination cap.
	Skipped bool
}

// candidateCalls returns the non-primary calls at picked positions whose
// RelScore exceeds significance and which are supported by more than one
// read, sorted by decreasing RelScore.
func candidateCalls(calls CallTable, t *PickedTable, significance float64) []*Call {
	var cands []*Call
	for pos := 1; pos <= calls.Len(); pos++ {
		if t.Get(pos) == nil {
			continue
		}
		cs := calls[pos]
		for i := 1; i < len(cs); i++ {
			if cs[i].RelScore > significance && cs[i].Count > 1 {
				cands = append(cands, &cs[i])
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].RelScore > cands[j].RelScore })
	return cands
}

// hasPick returns true if any position of f has a picked call.
func hasPick(f *feature.Feature, t *PickedTable) bool {
	for pos := f.Start; pos <= f.End && pos <= t.Len(); pos++ {
		if t.Get(pos) != nil {
			return true
		}
	}
	return false
}

// RestoreORFs tries to repair the reading frame of every + strand gene and
// CDS in features whose ScoreFeature is below opts.NearPerfect.
//
// For each such feature, significant combinations of minority calls inside
// the feature are substituted into t one at a time, best first.  Each
// hypothesis is scored and rolled back before the next one.  The best
// hypothesis that improves on the original score is committed.  The search
// for a feature stops early once a hypothesis reaches opts.NearPerfect.
//
// A feature whose candidates would need more than opts.CombinationCap
// combinations is logged and left as is.  Features without any covered
// position are skipped.
func RestoreORFs(features []*feature.Feature, calls CallTable, t *PickedTable, opts Opts) ([]FeatureScore, error) {
	cands := candidateCalls(calls, t, opts.Significance)
	log.Debug.Printf("consensus.RestoreORFs: %d candidate calls", len(cands))
	var scores []FeatureScore
	for _, f := range features {
		if !f.IsForwardCoding() {
			continue
		}
		if !hasPick(f, t) {
			log.Debug.Printf("consensus.RestoreORFs: %s has no covered position", f.Name())
			continue
		}
		before, err := ScoreFeature(f, t)
		if err != nil {
			return nil, err
		}
		fs := FeatureScore{Feature: f, Before: before, After: before}
		if before < opts.NearPerfect {
			if err := restoreFeature(f, cands, t, opts, &fs); err != nil {
				return nil, err
			}
		}
		scores = append(scores, fs)
	}
	return scores, nil
}

func restoreFeature(f *feature.Feature, allCands []*Call, t *PickedTable, opts Opts, fs *FeatureScore) error {
	var cands []*Call
	for _, c := range allCands {
		if f.Contains(c.Pos) {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		log.Debug.Printf("consensus.RestoreORFs: %s: score %.4f, no alternative calls", f.Name(), fs.Before)
		return nil
	}
	combos, err := NewCombinations(cands, opts.Significance, opts.CombinationCap)
	if err != nil {
		if IsCombinatorialOverflow(err) {
			log.Error.Printf("consensus.RestoreORFs: %s: %d alternative calls: %v; not restored", f.Name(), len(cands), err)
			fs.Skipped = true
			return nil
		}
		return err
	}
	var (
		best     []*Call
		nTried   int
		bestProd float64
	)
	for {
		combo, product, ok := combos.Next()
		if !ok {
			break
		}
		nTried++
		snap := t.Insert(combo)
		score, err := ScoreFeature(f, t)
		t.Restore(snap)
		if err != nil {
			if errors.Is(errors.Precondition, err) {
				continue
			}
			return err
		}
		if score > fs.After {
			fs.After = score
			best = append(best[:0], combo...)
			bestProd = product
		}
		if fs.After >= opts.NearPerfect {
			break
		}
	}
	if best != nil {
		t.Commit(best)
		fs.Restored = best
		log.Printf("consensus.RestoreORFs: %s: score %.4f -> %.4f by %v (significance %.3f, %d tried)",
			f.Name(), fs.Before, fs.After, best, bestProd, nTried)
	} else {
		log.Debug.Printf("consensus.RestoreORFs: %s: score %.4f, no improvement in %d combinations", f.Name(), fs.Before, nTried)
	}
	return nil
}
