package consensus

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestIUPAC(t *testing.T) {
	tests := []struct {
		bases string
		want  byte
	}{
		{"AC", 'M'},
		{"AG", 'R'},
		{"AT", 'W'},
		{"CG", 'S'},
		{"CT", 'Y'},
		{"GT", 'K'},
		{"ACG", 'V'},
		{"ACT", 'H'},
		{"AGT", 'D'},
		{"CGT", 'B'},
		{"ACGT", 'N'},
		{"A", 'A'},
		{"AA", 'A'},
		{"ac", 'M'},
		{"A-", 'N'},
		{"CGN", 'N'},
	}
	for _, tt := range tests {
		b := []byte(tt.bases)
		got, err := IUPAC(b...)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, "bases %s", tt.bases)
		// Order must not matter.
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		got, err = IUPAC(b...)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, "bases %s", b)
	}
	_, err := IUPAC()
	expect.True(t, errors.Is(errors.Integrity, err))
}

func TestResolve(t *testing.T) {
	const tau = 10
	tests := []struct {
		name      string
		top       []BaseCount
		cov       int
		ambiguous bool
		code      byte
	}{
		{"no coverage", []BaseCount{{'A', 0}}, 0, false, 0},
		{"dominant", []BaseCount{{'A', 80}, {'C', 20}}, 100, false, 0},
		{"doublet", []BaseCount{{'A', 50}, {'G', 45}, {'T', 5}}, 100, true, 'R'},
		{"doublet at threshold", []BaseCount{{'C', 55}, {'T', 45}}, 100, true, 'Y'},
		{"gap second", []BaseCount{{'A', 50}, {'-', 50}}, 100, false, 0},
		{"gap first", []BaseCount{{'-', 50}, {'A', 49}}, 100, false, 0},
		{"triplet", []BaseCount{{'A', 34}, {'C', 33}, {'T', 30}, {'G', 3}}, 100, true, 'H'},
		{"triplet with gap", []BaseCount{{'A', 34}, {'C', 33}, {'-', 30}, {'G', 3}}, 100, true, 'N'},
		{"quadruplet", []BaseCount{{'A', 25}, {'C', 25}, {'G', 25}, {'T', 25}}, 100, true, 'N'},
		{"sparse", []BaseCount{{'A', 6}, {'C', 4}}, 100, true, 'N'},
	}
	for _, tt := range tests {
		ambiguous, code, err := Resolve(tt.top, tt.cov, tau)
		assert.NoError(t, err)
		expect.EQ(t, ambiguous, tt.ambiguous, tt.name)
		expect.EQ(t, code, tt.code, tt.name)
	}
}

func TestResolveSymmetric(t *testing.T) {
	for _, pair := range [][2]byte{{'A', 'C'}, {'A', 'G'}, {'A', 'T'}, {'C', 'G'}, {'C', 'T'}, {'G', 'T'}} {
		a, b := pair[0], pair[1]
		amb1, code1, err := Resolve([]BaseCount{{a, 48}, {b, 48}, {'-', 4}}, 100, 10)
		assert.NoError(t, err)
		amb2, code2, err := Resolve([]BaseCount{{b, 48}, {a, 48}, {'-', 4}}, 100, 10)
		assert.NoError(t, err)
		expect.True(t, amb1)
		expect.EQ(t, amb1, amb2)
		expect.EQ(t, code1, code2)
	}
}

func TestResolveThresholdBoundary(t *testing.T) {
	tests := []struct {
		top       []BaseCount
		cov       int
		ambiguous bool
		code      byte
	}{
		{[]BaseCount{{'C', 55}, {'T', 45}}, 100, true, 'Y'},
		{[]BaseCount{{'T', 55}, {'C', 45}}, 100, true, 'Y'},
		{[]BaseCount{{'C', 57}, {'T', 47}}, 104, true, 'Y'},
		{[]BaseCount{{'C', 56}, {'T', 44}}, 100, false, 0},
		{[]BaseCount{{'A', 110}, {'G', 90}}, 200, true, 'R'},
		{[]BaseCount{{'A', 111}, {'G', 89}}, 200, false, 0},
		{[]BaseCount{{'A', 40}, {'C', 30}, {'G', 30}}, 100, true, 'V'},
		{[]BaseCount{{'A', 33}, {'C', 33}, {'G', 17}, {'T', 17}}, 100, true, 'M'},
	}
	for _, tt := range tests {
		ambiguous, code, err := Resolve(tt.top, tt.cov, 10)
		assert.NoError(t, err)
		expect.EQ(t, ambiguous, tt.ambiguous, "%v of %d", tt.top, tt.cov)
		expect.EQ(t, code, tt.code, "%v of %d", tt.top, tt.cov)
	}
	expect.EQ(t, ambiguityType([4]int{55, 45, 0, 0}, 100, 10), 2)
	expect.EQ(t, ambiguityType([4]int{30, 25, 25, 20}, 100, 10), 4)
	expect.EQ(t, ambiguityType([4]int{61, 39, 0, 0}, 100, 10), 0)
}
