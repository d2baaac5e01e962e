package consensus

import (
	"github.com/grailbio/consensus/feature"
	"github.com/grailbio/consensus/pileup"
)

// obs expands (observation, count) pairs into a list of observations.
func obs(parts ...interface{}) []string {
	var out []string
	for i := 0; i < len(parts); i += 2 {
		s := parts[i].(string)
		for n := parts[i+1].(int); n > 0; n-- {
			out = append(out, s)
		}
	}
	return out
}

// newTestIndex returns an index over ref in which every position carries cov
// copies of its reference base, except for the positions in override.
func newTestIndex(ref string, cov int, override map[int][]string) *pileup.Index {
	idx := pileup.NewIndex("ref", []byte(ref))
	for pos := 1; pos <= len(ref); pos++ {
		if o, ok := override[pos]; ok {
			idx.Add(pos, o...)
			continue
		}
		idx.Add(pos, obs(ref[pos-1:pos], cov)...)
	}
	return idx
}

func newCDS(start, end int, attrs ...feature.Attribute) *feature.Feature {
	return &feature.Feature{
		SeqID:      "ref",
		Source:     "test",
		Type:       "CDS",
		Start:      start,
		End:        end,
		Score:      ".",
		Strand:     "+",
		Phase:      "0",
		Attributes: append([]feature.Attribute{{Key: "ID", Value: "cds-1"}}, attrs...),
	}
}

// newTestTable returns a picked table with one call per position; "" leaves
// the position without a pick.
func newTestTable(seqs ...string) *PickedTable {
	t := &PickedTable{
		picks:     make([]*Call, len(seqs)+1),
		committed: make([]bool, len(seqs)+1),
	}
	for i, s := range seqs {
		if s != "" {
			t.picks[i+1] = &Call{Pos: i + 1, Seq: s, Count: 100, Score: 1, RelScore: 1}
		}
	}
	return t
}

func testOpts() Opts {
	opts := DefaultOpts
	opts.Parallelism = 2
	return opts
}
