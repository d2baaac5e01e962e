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

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// FillOpts controls which alignments contribute to the index.
type FillOpts struct {
	// FlagExclude skips reads with a FLAG bit intersecting this value.
	// Unmapped reads are always skipped.
	FlagExclude int
	// Positions, if non-nil, restricts the fill to these 1-based positions.
	// Their previous observations are discarded first.
	Positions map[int]bool
}

// alignedObs is a single observation produced while walking a read's CIGAR.
type alignedObs struct {
	pos int // 1-based
	obs []byte
}

// alignRead walks the CIGAR of samr and appends one observation per covered
// reference position to *result.  Inserted bases are attached to the
// observation of the preceding aligned position; an insertion with no
// preceding aligned position (i.e. right after a leading soft-clip) is
// dropped.  The function signature requires a preallocated []alignedObs
// since it's called once per read.
func alignRead(result *[]alignedObs, samr *sam.Record, seq []byte) (err error) {
	*result = (*result)[:0]
	posInRef := samr.Pos + 1
	posInRead := 0
	for _, co := range samr.Cigar {
		cLen := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < cLen; i++ {
				*result = append(*result, alignedObs{
					pos: posInRef + i,
					obs: []byte{seq[posInRead+i]},
				})
			}
			posInRef += cLen
			posInRead += cLen
		case sam.CigarInsertion:
			if n := len(*result); n != 0 {
				last := &(*result)[n-1]
				last.obs = append(last.obs, seq[posInRead:posInRead+cLen]...)
			}
			posInRead += cLen
		case sam.CigarDeletion:
			for i := 0; i < cLen; i++ {
				*result = append(*result, alignedObs{
					pos: posInRef + i,
					obs: []byte{Gap},
				})
			}
			posInRef += cLen
		case sam.CigarSkipped:
			// Spliced-out reference positions are not observations.
			posInRef += cLen
		case sam.CigarSoftClipped:
			posInRead += cLen
		case sam.CigarHardClipped, sam.CigarPadded:
			// do nothing
		default:
			return fmt.Errorf("alignRead: unexpected CIGAR code %v in read %s", co, samr.Name)
		}
	}
	return
}

// overlaps returns true iff samr aligns to some position in the 1-based
// closed interval [lo, hi].
func overlaps(samr *sam.Record, lo, hi int) bool {
	return samr.Pos+1 <= hi && samr.End() >= lo
}

// FillFromBAM reads every alignment in the BAM at path and adds its
// observations to idx.  Only alignments to idx.RefName() are used.
func FillFromBAM(ctx context.Context, path string, idx *Index, opts FillOpts) (err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return errors.Wrapf(err, "pileup.FillFromBAM: %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var reader *bam.Reader
	if reader, err = bam.NewReader(in.Reader(ctx), 1); err != nil {
		return errors.Wrapf(err, "pileup.FillFromBAM: %s", path)
	}
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	// Reads entirely outside [lo, hi] are skipped before their CIGAR is walked.
	lo, hi := 1, idx.Len()
	if opts.Positions != nil {
		positions := SortedPositions(opts.Positions)
		for _, pos := range positions {
			if pos >= 1 && pos <= idx.Len() {
				idx.Reset(pos)
			}
		}
		if n := len(positions); n != 0 {
			lo, hi = positions[0], positions[n-1]
			log.Debug.Printf("pileup.FillFromBAM: refilling %d position(s) in [%d, %d]", n, lo, hi)
		} else {
			lo, hi = 1, 0
		}
	}

	refLen := idx.Len()
	aligned := make([]alignedObs, 0, 512)
	var nRead, nUsed, nOffRef int
	for {
		var samr *sam.Record
		if samr, err = reader.Read(); err != nil {
			if err == io.EOF {
				err = nil
				break
			}
			return errors.Wrapf(err, "pileup.FillFromBAM: %s", path)
		}
		nRead++
		if (samr.Flags&sam.Unmapped != 0) || (opts.FlagExclude&int(samr.Flags) != 0) || (len(samr.Cigar) == 0) {
			sam.PutInFreePool(samr)
			continue
		}
		if samr.Ref == nil || samr.Ref.Name() != idx.RefName() {
			nOffRef++
			sam.PutInFreePool(samr)
			continue
		}
		if !overlaps(samr, lo, hi) {
			sam.PutInFreePool(samr)
			continue
		}
		seq := samr.Seq.Expand()
		if err = alignRead(&aligned, samr, seq); err != nil {
			return
		}
		for _, a := range aligned {
			if a.pos < 1 || a.pos > refLen {
				continue
			}
			if opts.Positions != nil && !opts.Positions[a.pos] {
				continue
			}
			idx.Add(a.pos, NormalizeObservation(string(a.obs)))
		}
		nUsed++
		sam.PutInFreePool(samr)
	}
	if nOffRef != 0 {
		log.Printf("pileup.FillFromBAM: warning: %d alignment(s) to contigs other than %s ignored", nOffRef, idx.RefName())
	}
	log.Printf("pileup.FillFromBAM: %s: %d of %d records used", path, nUsed, nRead)
	return
}
