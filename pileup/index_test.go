package pileup

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestNormalizeObservation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "A"},
		{"a", "A"},
		{"*", "-"},
		{"-", "-"},
		{"a+2tt", "ATT"},
		{"C+12ACGTACGTACGT", "CACGTACGTACGT"},
		{"G-2NN", "G"},
		{"*+1c", "-C"},
		{"", ""},
	}
	for _, tt := range tests {
		expect.EQ(t, NormalizeObservation(tt.in), tt.want, "input %q", tt.in)
	}
}

func TestBaseEnum(t *testing.T) {
	expect.EQ(t, ASCIIToEnum('a'), BaseA)
	expect.EQ(t, ASCIIToEnum('T'), BaseT)
	expect.EQ(t, ASCIIToEnum('N'), BaseX)
	expect.EQ(t, ASCIIToEnum('-'), BaseGap)
	expect.True(t, IsBase('g'))
	expect.False(t, IsBase('N'))
	expect.False(t, IsBase(Gap))
	for e := byte(0); e < NBaseEnum; e++ {
		expect.EQ(t, ASCIIToEnum(EnumToASCIITable[e]), e)
	}
}

func TestNewIndexFromPositions(t *testing.T) {
	idx, err := NewIndexFromPositions("ref", []Position{
		{Pos: 1, RefNuc: 'A', Observations: []string{"a", "A", "*"}},
		{Pos: 2, RefNuc: 'C', Observations: []string{"C+2gg", "C"}},
		{Pos: 3, RefNuc: 'G'},
	})
	assert.NoError(t, err)
	assert.NoError(t, idx.Validate())
	expect.EQ(t, idx.Len(), 3)
	expect.EQ(t, string(idx.Ref()), "ACG")
	expect.EQ(t, idx.At(1).Observations, []string{"A", "A", "-"})
	expect.EQ(t, idx.At(2).Observations, []string{"CGG", "C"})
	expect.EQ(t, idx.Coverage(3), 0)
	expect.EQ(t, idx.Coverage(4), 0)
	expect.EQ(t, len(idx.Range(0, 10)), 3)
	expect.EQ(t, len(idx.Range(2, 2)), 1)
	expect.EQ(t, len(idx.Range(3, 2)), 0)

	_, err = NewIndexFromPositions("ref", []Position{
		{Pos: 1, RefNuc: 'A'},
		{Pos: 3, RefNuc: 'C'},
	})
	assert.NotNil(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = NewIndexFromPositions("ref", []Position{
		{Pos: 2, RefNuc: 'A'},
		{Pos: 1, RefNuc: 'C'},
	})
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestFractions(t *testing.T) {
	idx := NewIndex("ref", []byte("ACGT"))
	idx.Add(1, "A", "A", "-", "-")
	idx.Add(2, "CTT", "CTT", "CTT", "C")
	idx.Add(3, "G")

	expect.EQ(t, idx.GapFraction(1), 0.5)
	expect.EQ(t, idx.GapFraction(3), 0.0)
	expect.EQ(t, idx.GapFraction(4), 0.0)
	expect.EQ(t, idx.GapFraction(0), 0.0)
	expect.EQ(t, idx.InsertionFraction(2), 0.75)
	expect.EQ(t, idx.InsertionFraction(4), 0.0)

	idx.Reset(1)
	expect.EQ(t, idx.Coverage(1), 0)
}

func TestMajorityInsertion(t *testing.T) {
	idx := NewIndex("ref", []byte("ACGT"))
	idx.Add(1, "AGG", "AGG", "AG", "A")
	idx.Add(2, "C", "C", "CTT")
	idx.Add(3, "GA", "GC")

	ins, ok := idx.MajorityInsertion(1)
	expect.True(t, ok)
	expect.EQ(t, ins, "GG")

	_, ok = idx.MajorityInsertion(2)
	expect.False(t, ok)

	// Tie goes to the first one seen.
	ins, ok = idx.MajorityInsertion(3)
	expect.True(t, ok)
	expect.EQ(t, ins, "A")

	_, ok = idx.MajorityInsertion(4)
	expect.False(t, ok)
}
