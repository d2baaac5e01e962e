package consensus

import (
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestPickedTable(t *testing.T) {
	idx := newTestIndex("ACGT", 40, map[int][]string{
		2: obs("C", 20, "T", 5),
		3: obs("G", 30, "-", 25),
	})
	calls, err := AggregateIndex(idx, 1)
	assert.NoError(t, err)
	table := NewPickedTable(calls, idx, 30)
	expect.EQ(t, table.Len(), 4)
	expect.EQ(t, table.Get(1).Seq, "A")
	expect.True(t, table.Get(2) == nil)
	expect.EQ(t, table.Get(3).Seq, "G")
	expect.True(t, table.Get(0) == nil)
	expect.True(t, table.Get(5) == nil)

	alt := &calls.At(3)[1]
	other := &Call{Pos: 3, Seq: "T"}
	snap := table.Insert([]*Call{alt, other})
	expect.EQ(t, table.Get(3).Seq, "T")
	table.Restore(snap)
	expect.EQ(t, table.Get(3).Seq, "G")
	expect.False(t, table.Committed(3))

	snap = table.Insert([]*Call{alt})
	expect.EQ(t, table.Get(3).Seq, "-")
	table.Restore(snap)

	table.Commit([]*Call{alt})
	expect.EQ(t, table.Get(3).Seq, "-")
	expect.True(t, table.Committed(3))
	expect.False(t, table.Committed(1))
	expect.False(t, table.Committed(9))
}
