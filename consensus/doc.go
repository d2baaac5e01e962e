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

// Package consensus turns a pileup.Index into a single consensus sequence.
//
// The pipeline runs in four steps.  Observations at each position are
// aggregated into ranked calls, and the most frequent call is picked.  For
// each + strand gene or CDS whose reading frame is broken by the picked
// calls, combinations of well-supported minority calls are tried, and the
// combination that best restores the frame is committed.  The picked calls
// are then walked left to right to produce one symbol per reference
// position: N for insufficient coverage, a base or IUPAC ambiguity code, or
// '-' for a deletion.  Deletions which would break a coding frame are
// examined in context, and well-supported insertions are spliced in after
// their anchor position.  Finally, feature coordinates are translated to the
// consensus as it is emitted.
package consensus
