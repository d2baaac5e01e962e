package consensus

import (
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestScoreFeature(t *testing.T) {
	tests := []struct {
		name  string
		picks string // comma-separated picked calls, "" for none
		want  float64
	}{
		{"intact", "A,T,G,A,C,G,T,A,A", 1},
		{"premature stop", "A,T,G,T,A,A,A,C,G", 2.0 / 3},
		{"deletion", "A,T,G,-,C,G,T,A,A", 0.5},
		{"insertion", "A,T,GA,C,G,T", 0.5},
		{"insertion with deletion", "A,T,GA,-,C,G,T,A,A", 1},
		{"uncovered", "A,T,G,,C,G,T,A,A", 1},
		{"gap with insertion", "A,T,G,-AA,C,G,T,A,A", 1.0 / 3},
	}
	for _, tt := range tests {
		table := newTestTable(strings.Split(tt.picks, ",")...)
		score, err := ScoreFeature(newCDS(1, table.Len()), table)
		assert.NoError(t, err, tt.name)
		expect.EQ(t, score, tt.want, tt.name)
	}
}

func TestScoreFeatureClipped(t *testing.T) {
	table := newTestTable("A", "T", "G", "T", "A", "A")
	score, err := ScoreFeature(newCDS(1, 30), table)
	assert.NoError(t, err)
	expect.EQ(t, score, 1.0)
}

func TestScoreFeatureEmpty(t *testing.T) {
	_, err := ScoreFeature(newCDS(1, 2), newTestTable("A", "T"))
	expect.True(t, errors.Is(errors.Precondition, err))
	_, err = ScoreFeature(newCDS(1, 4), newTestTable("", "", "", ""))
	expect.True(t, errors.Is(errors.Precondition, err))
	_, err = ScoreFeature(newCDS(5, 4), newTestTable("A", "T", "G", "A", "A"))
	expect.True(t, errors.Is(errors.Precondition, err))
}
