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
package pileup

// Common pileup components.

// Gap is the normalized symbol for an observation which aligns a deletion to
// a reference position.  Insertion tails may follow it.
const Gap byte = '-'

// These constants index per-symbol tallies.  Only the first byte of an
// observation (the aligned base, or Gap) is used; insertion tails never
// contribute to the symbol identity.
const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents a C base.
	BaseC
	// BaseG represents a G base.
	BaseG
	// BaseT represents a T base.
	BaseT
	// BaseX is a catch-all for N and any other non-ACGT byte.
	BaseX
	// BaseGap represents a deleted position.
	BaseGap
)

const (
	// NBase is the number of regular base types.
	NBase = 4
	// NBaseEnum counts BaseX and BaseGap as well as the regular base types.
	NBaseEnum = 6
)

// EnumToASCIITable is the A/C/G/T/X/gap -> ASCII mapping, with X rendered as
// 'N'.
var EnumToASCIITable = [...]byte{'A', 'C', 'G', 'T', 'N', Gap}

// asciiToEnumTable maps every byte to its enum; anything unrecognized is
// BaseX.  Lowercase bases map to the same enum as their uppercase forms.
var asciiToEnumTable = func() (t [256]byte) {
	for i := range t {
		t[i] = BaseX
	}
	t['A'], t['a'] = BaseA, BaseA
	t['C'], t['c'] = BaseC, BaseC
	t['G'], t['g'] = BaseG, BaseG
	t['T'], t['t'] = BaseT, BaseT
	t[Gap] = BaseGap
	t['*'] = BaseGap
	return
}()

// ASCIIToEnum returns the A/C/G/T/X/gap enum of c.
func ASCIIToEnum(c byte) byte {
	return asciiToEnumTable[c]
}

// IsBase returns true iff c is one of A/C/G/T (either case).
func IsBase(c byte) bool {
	return asciiToEnumTable[c] < NBase
}

// NormalizeObservation upper-cases obs, maps the pysam/samtools deletion
// marker '*' to Gap, and strips indel length digits and '+' markers, so that
// "a+2tt" becomes "ATT" and "*" becomes "-".  A trailing deletion annotation
// ("A-2NN") is dropped, since the deleted positions carry their own Gap
// observations.  An empty result means the observation is unusable.
func NormalizeObservation(obs string) string {
	buf := make([]byte, 0, len(obs))
	for i := 0; i < len(obs); i++ {
		c := obs[i]
		switch {
		case c == '-' && i > 0:
			// Deletion annotation on the preceding base.
			return string(buf)
		case c == '*' || c == '-':
			buf = append(buf, Gap)
		case c == '+' || (c >= '0' && c <= '9'):
		case c >= 'a' && c <= 'z':
			buf = append(buf, c-('a'-'A'))
		default:
			buf = append(buf, c)
		}
	}
	return string(buf)
}
