package consensus

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func drain(it *Combinations) (sets [][]int, products []float64) {
	for {
		calls, product, ok := it.Next()
		if !ok {
			return
		}
		var positions []int
		for _, c := range calls {
			positions = append(positions, c.Pos)
		}
		sets = append(sets, positions)
		products = append(products, product)
	}
}

func TestCombinationsOrder(t *testing.T) {
	cands := []*Call{
		{Pos: 1, Seq: "C", Count: 9, RelScore: 0.9},
		{Pos: 2, Seq: "C", Count: 8, RelScore: 0.8},
		{Pos: 3, Seq: "C", Count: 7, RelScore: 0.7},
		{Pos: 4, Seq: "C", Count: 6, RelScore: 0.6},
	}
	it, err := NewCombinations(cands, 0.5, 10000)
	require.NoError(t, err)
	sets, products := drain(it)
	require.Equal(t, [][]int{{1}, {2}, {1, 2}, {3}, {1, 3}, {4}, {2, 3}, {1, 4}, {1, 2, 3}}, sets)
	for i := 1; i < len(products); i++ {
		require.True(t, products[i] <= products[i-1])
	}
	require.InDelta(t, 0.504, products[len(products)-1], 1e-9)
	for _, p := range products {
		require.True(t, p > 0.5)
	}
}

func TestCombinationsSamePosition(t *testing.T) {
	cands := []*Call{
		{Pos: 1, Seq: "C", RelScore: 0.9},
		{Pos: 1, Seq: "G", RelScore: 0.8},
		{Pos: 2, Seq: "T", RelScore: 0.7},
	}
	it, err := NewCombinations(cands, 0.5, 10000)
	require.NoError(t, err)
	var got [][]string
	for {
		calls, _, ok := it.Next()
		if !ok {
			break
		}
		var seqs []string
		for _, c := range calls {
			seqs = append(seqs, c.Seq)
		}
		got = append(got, seqs)
	}
	expect.EQ(t, got, [][]string{{"C"}, {"G"}, {"T"}, {"C", "T"}, {"G", "T"}})
}

func TestCombinationsEmpty(t *testing.T) {
	it, err := NewCombinations(nil, 0.5, 10)
	require.NoError(t, err)
	_, _, ok := it.Next()
	require.False(t, ok)

	it, err = NewCombinations([]*Call{{Pos: 1, RelScore: 0.4}}, 0.5, 10)
	require.NoError(t, err)
	_, _, ok = it.Next()
	require.False(t, ok)
}

func TestCombinationsOverflow(t *testing.T) {
	var cands []*Call
	for i := 0; i < 30; i++ {
		cands = append(cands, &Call{Pos: i + 1, Seq: "A", Count: 45, RelScore: 0.9})
	}
	// 0.9^6 > 0.5 >= 0.9^7, and C(30, 6) = 593775.
	_, err := NewCombinations(cands, 0.5, 10000)
	require.Error(t, err)
	require.True(t, IsCombinatorialOverflow(err))

	_, err = NewCombinations(cands, 0.5, 593775)
	require.NoError(t, err)
}

func TestBinomialExceeds(t *testing.T) {
	expect.False(t, binomialExceeds(30, 6, 593775))
	expect.True(t, binomialExceeds(30, 6, 593774))
	expect.False(t, binomialExceeds(30, 30, 1))
	expect.False(t, binomialExceeds(5, 0, 1))
	expect.True(t, binomialExceeds(60, 30, 1<<40))
}
