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
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ParseOverridePositions reads a gzip-compressed CSV whose first column holds
// 1-based positions.  The first row is a header and is skipped.
func ParseOverridePositions(r io.Reader) (map[int]bool, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "override positions are not gzip-compressed")
	}
	defer gz.Close() // nolint: errcheck
	cr := csv.NewReader(gz)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	positions := make(map[int]bool)
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "couldn't read override positions")
		}
		if header {
			header = false
			continue
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "bad override position %q", rec[0])
		}
		positions[pos] = true
	}
	return positions, nil
}

// ReadOverridePositions is ParseOverridePositions on the file at path.
func ReadOverridePositions(ctx context.Context, path string) (positions map[int]bool, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	if positions, err = ParseOverridePositions(in.Reader(ctx)); err != nil {
		err = errors.Wrapf(err, "pileup.ReadOverridePositions: %s", path)
	}
	return
}

// SortedPositions returns the members of positions in increasing order.
func SortedPositions(positions map[int]bool) []int {
	sorted := maps.Keys(positions)
	slices.Sort(sorted)
	return sorted
}
