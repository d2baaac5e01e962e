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
	"github.com/grailbio/base/log"
	"github.com/grailbio/consensus/feature"
	"github.com/grailbio/consensus/pileup"
)

// Build runs the whole pipeline on idx: call aggregation, ORF restoration
// for the + strand coding features, and the consensus walk.  features are
// not modified; the corrected copies are in Result.Features.
//
// Errors abort the whole sample; no partial result is returned.
func Build(idx *pileup.Index, features []*feature.Feature, opts Opts) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	calls, err := AggregateIndex(idx, opts.Parallelism)
	if err != nil {
		return nil, err
	}
	table := NewPickedTable(calls, idx, opts.MinCoverage)
	scores, err := RestoreORFs(features, calls, table, opts)
	if err != nil {
		return nil, err
	}
	res, err := Walk(idx, calls, table, features, opts)
	if err != nil {
		return nil, err
	}
	res.Scores = scores
	for _, s := range scores {
		if s.After < opts.NearPerfect {
			log.Printf("consensus.Build: %s: frame score %.4f after restoration", s.Feature.Name(), s.After)
		}
	}
	return res, nil
}
