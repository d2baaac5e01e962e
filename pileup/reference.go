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
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/consensus/encoding/fasta"
	"github.com/pkg/errors"
)

// ReadReference returns the name and upper-cased sequence of the first record
// in the FASTA data from r.  Sequence names end at the first space, so
// ">MN908947.3 Severe acute..." is named "MN908947.3".
func ReadReference(r io.Reader) (name string, seq []byte, err error) {
	var fa fasta.Fasta
	if fa, err = fasta.New(r, fasta.OptUpperCase); err != nil {
		return "", nil, err
	}
	names := fa.SeqNames()
	name = names[0]
	var n uint64
	if n, err = fa.Len(name); err != nil {
		return "", nil, err
	}
	var s string
	if s, err = fa.Get(name, 0, n); err != nil {
		return "", nil, err
	}
	if len(names) > 1 {
		log.Printf("pileup.ReadReference: warning: %d additional sequence(s) after %s ignored", len(names)-1, name)
	}
	return name, []byte(s), nil
}

// LoadReference is a thin wrapper around ReadReference which transparently
// decompresses the file at fapath.
func LoadReference(ctx context.Context, fapath string) (name string, seq []byte, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, fapath); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	var r io.Reader = infile.Reader(ctx)
	if u := compress.NewReaderPath(r, infile.Name()); u != nil {
		defer func() {
			if e := u.Close(); e != nil && err == nil {
				err = e
			}
		}()
		r = u
	}
	if name, seq, err = ReadReference(r); err != nil {
		err = errors.Wrapf(err, "pileup.LoadReference: %s", fapath)
	}
	return
}
