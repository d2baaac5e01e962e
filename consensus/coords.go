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

// frameState tracks the stop-codon search through one + strand coding
// feature.
type frameState struct {
	// open is cleared once the feature's end has been settled.
	open  bool
	codon [3]byte
	n     int
	// shift is the total length of the insertions emitted before the
	// annotated end.
	shift int
}

// CoordinateCorrector translates feature coordinates from the reference to
// the consensus while the consensus is being emitted.  Consensus coordinates
// keep '-' symbols, so only insertions move features.
//
// For + strand genes and CDSs, the end is moved back to the first in-frame
// stop codon read from the (gap-stripped) consensus within the feature.  The
// search never extends a feature: it ends once the consensus passes the
// annotated end plus the insertions emitted before it, which also
// covers features translated through a ribosomal slippage.  While the newest
// symbol inside the feature is a gap the end falls back to the annotated end.
type CoordinateCorrector struct {
	orig    []*feature.Feature
	working []*feature.Feature
	state   []frameState
	// n is the length of the consensus observed so far.
	n int
}

// NewCoordinateCorrector returns a corrector whose working features are
// copies of orig.  orig is not modified.
func NewCoordinateCorrector(orig []*feature.Feature) *CoordinateCorrector {
	c := &CoordinateCorrector{
		orig:    orig,
		working: feature.CloneAll(orig),
		state:   make([]frameState, len(orig)),
	}
	for i, f := range orig {
		c.state[i].open = f.IsForwardCoding()
	}
	return c
}

// Features returns the corrected features, in the order given to
// NewCoordinateCorrector.
func (c *CoordinateCorrector) Features() []*feature.Feature {
	return c.working
}

// Observe extends the consensus by the symbol emitted for one reference
// position, followed by the inserted bases emitted after it, if any.
func (c *CoordinateCorrector) Observe(symbol byte, insertion string) {
	c.n++
	c.feed(c.n, symbol)
	if insertion == "" {
		return
	}
	cp := c.n
	for i, f := range c.working {
		switch {
		case f.Start > cp:
			f.Start += len(insertion)
			f.End += len(insertion)
		case f.End > cp:
			f.End += len(insertion)
		default:
			continue
		}
		c.state[i].shift += len(insertion)
	}
	for j := 0; j < len(insertion); j++ {
		c.n++
		c.feed(c.n, insertion[j])
	}
}

// limit is the last consensus position of the stop search of feature i.
func (c *CoordinateCorrector) limit(i int) int {
	return c.orig[i].End + c.state[i].shift
}

// feed advances the stop-codon search of every open feature which has
// started by the consensus symbol b at consensus position cp.
func (c *CoordinateCorrector) feed(cp int, b byte) {
	for i, f := range c.working {
		st := &c.state[i]
		if !st.open || cp < f.Start {
			continue
		}
		if cp > c.limit(i) {
			st.open = false
			if f.HasRibosomalSlippage() {
				log.Debug.Printf("consensus.CoordinateCorrector: %s: translated through ribosomal slippage, end kept at %d", f.Name(), f.End)
			}
			continue
		}
		if b == pileup.Gap {
			f.End = c.limit(i)
			continue
		}
		st.codon[st.n] = b &^ 0x20
		st.n++
		if st.n < 3 {
			continue
		}
		st.n = 0
		if IsStopCodon(string(st.codon[:])) {
			st.open = false
			if f.End != cp {
				log.Debug.Printf("consensus.CoordinateCorrector: %s: stop codon ends at %d, annotated end %d", f.Name(), cp, c.limit(i))
			}
			f.End = cp
		}
	}
}
