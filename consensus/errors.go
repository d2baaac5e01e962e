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

import "github.com/pkg/errors"

// ErrCombinatorialOverflow is the cause of errors returned when ORF
// restoration for a feature would need more combinations than allowed by
// Opts.CombinationCap.  It is never fatal; the feature is left unrestored.
//
// The other failure classes use github.com/grailbio/base/errors kinds:
// errors.Invalid for an inconsistent position index, errors.Precondition for
// a feature without any scorable codon, and errors.Integrity for a base
// combination without an IUPAC code.
var ErrCombinatorialOverflow = errors.New("combinatorial overflow")

func combinatorialOverflow(nCand, k, maxCombos int) error {
	return errors.Wrapf(ErrCombinatorialOverflow, "C(%d, %d) exceeds %d", nCand, k, maxCombos)
}

// IsCombinatorialOverflow returns true if the cause of err is
// ErrCombinatorialOverflow.
func IsCombinatorialOverflow(err error) bool {
	return errors.Cause(err) == ErrCombinatorialOverflow
}
