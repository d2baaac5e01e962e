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
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// Opts holds the calibration constants of the consensus pipeline.
type Opts struct {
	// MinCoverage is the depth below which a position is emitted as N.  Picked
	// bases with fewer supporting reads than this are soft-masked.
	MinCoverage int `yaml:"min_coverage"`
	// Ambiguity enables IUPAC ambiguity codes.
	Ambiguity bool `yaml:"ambiguity"`
	// AmbiguityDistance is the maximum distance, in percentage points of
	// coverage, between calls considered equally represented.
	AmbiguityDistance float64 `yaml:"ambiguity_distance"`
	// MinorityDeletion is the gap fraction at which a base-picked position is
	// examined as part of a possible deletion.
	MinorityDeletion float64 `yaml:"minority_deletion"`
	// InsertionSupport is the fraction of reads which must carry an insertion
	// for it to be emitted.
	InsertionSupport float64 `yaml:"insertion_support"`
	// Significance is the minimum relative score (and product of relative
	// scores) of alternate calls tried during ORF restoration.
	Significance float64 `yaml:"significance"`
	// NearPerfect is the frame score at which a feature is left alone.
	NearPerfect float64 `yaml:"near_perfect"`
	// CombinationCap bounds the number of same-size combinations tried for
	// one feature.
	CombinationCap int `yaml:"combination_cap"`
	// Parallelism is the number of call-aggregation workers.  0 means NumCPU.
	Parallelism int `yaml:"parallelism"`
}

// DefaultOpts are the values used by bio-consensus.
var DefaultOpts = Opts{
	MinCoverage:       30,
	Ambiguity:         true,
	AmbiguityDistance: 10,
	MinorityDeletion:  0.15,
	InsertionSupport:  0.55,
	Significance:      0.5,
	NearPerfect:       0.99,
	CombinationCap:    10000,
	Parallelism:       0,
}

// Validate checks that opts is usable.
func (opts *Opts) Validate() error {
	if opts.MinCoverage < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("consensus: negative min coverage %d", opts.MinCoverage))
	}
	if opts.AmbiguityDistance < 0 || opts.AmbiguityDistance > 100 {
		return errors.E(errors.Invalid, fmt.Sprintf("consensus: ambiguity distance %g is not a percentage", opts.AmbiguityDistance))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"minority deletion", opts.MinorityDeletion},
		{"insertion support", opts.InsertionSupport},
		{"significance", opts.Significance},
		{"near-perfect score", opts.NearPerfect},
	} {
		if f.v < 0 || f.v > 1 {
			return errors.E(errors.Invalid, fmt.Sprintf("consensus: %s %g is not in [0, 1]", f.name, f.v))
		}
	}
	if opts.CombinationCap < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("consensus: combination cap %d must be positive", opts.CombinationCap))
	}
	if opts.Parallelism < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("consensus: negative parallelism %d", opts.Parallelism))
	}
	return nil
}

// DecodeOpts overlays the YAML document in r on *opts.  Keys absent from the
// document keep their current values; unknown keys are an error.
func DecodeOpts(r io.Reader, opts *Opts) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && err != io.EOF {
		return errors.E(errors.Invalid, "consensus.DecodeOpts", err)
	}
	return opts.Validate()
}

// LoadOpts is DecodeOpts on the file at path.
func LoadOpts(ctx context.Context, path string, opts *Opts) (err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err = DecodeOpts(in.Reader(ctx), opts); err != nil {
		err = errors.E(err, path)
	}
	return
}
