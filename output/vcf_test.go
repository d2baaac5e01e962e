package output

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/consensus/consensus"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// emissions builds one emission per symbol of seq against ref, with coverage
// 100 everywhere.  ins maps positions to inserted bases.
func emissions(ref, seq string, ins map[int]string) []consensus.Emission {
	es := make([]consensus.Emission, len(ref))
	for i := range ref {
		es[i] = consensus.Emission{
			Pos:       i + 1,
			Ref:       ref[i],
			Symbol:    seq[i],
			Insertion: ins[i+1],
			Coverage:  100,
		}
	}
	return es
}

func TestVariants(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		seq  string
		ins  map[int]string
		want []Variant
	}{
		{"identical", "ACGT", "ACGT", nil, nil},
		{"snv", "ACGT", "AGGT", nil, []Variant{
			{Pos: 2, Ref: "C", Alt: "G", Depth: 100},
		}},
		{"masked and ambiguous", "ACGT", "NcRT", nil, nil},
		{"deletion", "ACGTA", "A--TA", nil, []Variant{
			{Pos: 1, Ref: "ACG", Alt: "A", Depth: 100, Indel: true},
		}},
		{"leading deletion", "ACGT", "--GT", nil, []Variant{
			{Pos: 1, Ref: "ACG", Alt: "G", Depth: 100, Indel: true},
		}},
		{"all deleted", "AC", "--", nil, nil},
		{"deletion after snv", "ACGTA", "T--TA", nil, []Variant{
			{Pos: 1, Ref: "ACG", Alt: "T", Depth: 100, Indel: true},
		}},
		{"deletion after N", "ACGTA", "N--TA", nil, nil},
		{"deletion after masked base", "ACGTA", "a--GA", nil, []Variant{
			{Pos: 4, Ref: "T", Alt: "G", Depth: 100},
		}},
		{"leading deletion before snv", "ACGT", "--CT", nil, []Variant{
			{Pos: 1, Ref: "ACG", Alt: "C", Depth: 100, Indel: true},
		}},
		{"insertion then deletion", "ACGTA", "AC-TA", map[int]string{2: "G"}, []Variant{
			{Pos: 2, Ref: "C", Alt: "CG", Depth: 100, Indel: true},
			{Pos: 2, Ref: "CG", Alt: "C", Depth: 100, Indel: true},
		}},
		{"insertion", "ACGT", "ACGT", map[int]string{2: "TT"}, []Variant{
			{Pos: 2, Ref: "C", Alt: "CTT", Depth: 100, Indel: true},
		}},
		{"snv with insertion", "ACGT", "AGGT", map[int]string{2: "A"}, []Variant{
			{Pos: 2, Ref: "C", Alt: "G", Depth: 100},
			{Pos: 2, Ref: "C", Alt: "CA", Depth: 100, Indel: true},
		}},
		{"insertion after N", "ACGT", "ANGT", map[int]string{2: "A"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect.EQ(t, Variants(emissions(tt.ref, tt.seq, tt.ins)), tt.want)
		})
	}
}

var testHeader = VCFHeader{
	Contig:    "MN908947.3",
	ContigLen: 5,
	Reference: "ref.fa",
	Source:    "bio-consensus",
	Date:      time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
}

const wantVCF = `##fileformat=VCFv4.3
##fileDate=20200701
##source=bio-consensus
##reference=ref.fa
##contig=<ID=MN908947.3,length=5>
##INFO=<ID=DP,Number=1,Type=Integer,Description="Read Depth">
##INFO=<ID=INDEL,Number=0,Type=Flag,Description="Indicates that the variant is an INDEL.">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
MN908947.3	1	.	ACG	A	.	PASS	DP=100;INDEL
MN908947.3	5	.	A	T	.	PASS	DP=100
`

func TestWriteVCF(t *testing.T) {
	vs := Variants(emissions("ACGTA", "A--TT", nil))
	var buf bytes.Buffer
	assert.NoError(t, WriteVCF(&buf, testHeader, vs))
	expect.EQ(t, buf.String(), wantVCF)
}

func TestWriteVCFFile(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	vs := Variants(emissions("ACGTA", "A--TT", nil))
	path := filepath.Join(tmpdir, "consensus.vcf.gz")
	assert.NoError(t, WriteVCFFile(ctx, path, testHeader, vs, 1))

	in, err := file.Open(ctx, path)
	assert.NoError(t, err)
	defer file.CloseAndReport(ctx, in, &err)
	r, err := bgzf.NewReader(in.Reader(ctx), 1)
	assert.NoError(t, err)
	var got bytes.Buffer
	_, err = got.ReadFrom(r)
	assert.NoError(t, err)
	expect.True(t, strings.HasPrefix(got.String(), "##fileformat=VCFv4.3\n"))
	expect.EQ(t, got.String(), wantVCF)
}
