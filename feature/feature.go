// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package feature holds annotated genome features (genes, CDSs, ...) read
// from GFF3, and the span index used to ask whether a position is inside a
// coding region.
package feature

import (
	"strconv"
	"strings"
)

// Attribute is one key=value pair from the ninth GFF3 column.
type Attribute struct {
	Key   string
	Value string
}

// Feature is a single GFF3 record.  Start and End are 1-based and
// inclusive.  Score and Phase are kept verbatim since they are never
// interpreted, only re-emitted.
type Feature struct {
	SeqID  string
	Source string
	Type   string
	Start  int
	End    int
	Score  string
	Strand string
	Phase  string
	// Attributes keeps the input order so that a read/write round trip
	// reproduces the original column.
	Attributes []Attribute
}

// Len returns the number of bases spanned by f.
func (f *Feature) Len() int {
	if f.End < f.Start {
		return 0
	}
	return f.End - f.Start + 1
}

// Contains returns true iff pos lies in [f.Start, f.End].
func (f *Feature) Contains(pos int) bool {
	return pos >= f.Start && pos <= f.End
}

// Attr returns the value of the first attribute named key.
func (f *Feature) Attr(key string) (string, bool) {
	for _, a := range f.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces the value of the attribute named key, appending it if
// absent.
func (f *Feature) SetAttr(key, value string) {
	for i := range f.Attributes {
		if f.Attributes[i].Key == key {
			f.Attributes[i].Value = value
			return
		}
	}
	f.Attributes = append(f.Attributes, Attribute{key, value})
}

// Name returns a human-readable identifier for log messages: the Name
// attribute, else ID, else gene, else the feature's coordinates.
func (f *Feature) Name() string {
	for _, key := range []string{"Name", "ID", "gene"} {
		if v, ok := f.Attr(key); ok && v != "" {
			return v
		}
	}
	return f.Type + ":" + strconv.Itoa(f.Start) + "-" + strconv.Itoa(f.End)
}

// IsCoding returns true for gene and CDS features, on either strand.
func (f *Feature) IsCoding() bool {
	return f.Type == "gene" || f.Type == "CDS"
}

// IsForwardCoding returns true for gene and CDS features on the + strand.
// Only these take part in reading-frame scoring and ORF restoration.
func (f *Feature) IsForwardCoding() bool {
	return f.Strand == "+" && f.IsCoding()
}

// HasRibosomalSlippage returns true if f is annotated as translated through a
// programmed frameshift, in which case its annotated end must not be moved
// past.
func (f *Feature) HasRibosomalSlippage() bool {
	for _, a := range f.Attributes {
		if a.Key == "ribosomal_slippage" {
			return true
		}
		if a.Key == "exception" && strings.Contains(strings.ToLower(a.Value), "ribosomal slippage") {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of f.
func (f *Feature) Clone() *Feature {
	c := *f
	c.Attributes = append([]Attribute(nil), f.Attributes...)
	return &c
}

// CloneAll deep-copies every feature in fs.
func CloneAll(fs []*Feature) []*Feature {
	out := make([]*Feature, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}
