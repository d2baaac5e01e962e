package feature

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const testGFF = `##gff-version 3
#!processor NCBI annotwriter
##sequence-region MN908947.3 1 29903
MN908947.3	Genbank	gene	266	21555	.	+	.	ID=gene-ORF1ab;Name=ORF1ab;gene=ORF1ab
MN908947.3	Genbank	CDS	266	13483	.	+	0	ID=cds-1;Name=ORF1a;exception=ribosomal slippage
# stray comment
MN908947.3	Genbank	five_prime_UTR	1	265	.	+	.	.
##FASTA
>MN908947.3
ACGT
`

func TestParse(t *testing.T) {
	gff, err := Parse(strings.NewReader(testGFF))
	assert.NoError(t, err)
	expect.EQ(t, gff.Header, []string{
		"##gff-version 3",
		"#!processor NCBI annotwriter",
		"##sequence-region MN908947.3 1 29903",
	})
	assert.EQ(t, len(gff.Features), 3)

	gene := gff.Features[0]
	expect.EQ(t, gene.SeqID, "MN908947.3")
	expect.EQ(t, gene.Type, "gene")
	expect.EQ(t, gene.Start, 266)
	expect.EQ(t, gene.End, 21555)
	expect.EQ(t, gene.Strand, "+")
	expect.EQ(t, gene.Name(), "ORF1ab")
	expect.True(t, gene.IsForwardCoding())
	expect.False(t, gene.HasRibosomalSlippage())

	cds := gff.Features[1]
	expect.EQ(t, cds.Phase, "0")
	expect.True(t, cds.HasRibosomalSlippage())

	utr := gff.Features[2]
	expect.False(t, utr.IsCoding())
	expect.EQ(t, len(utr.Attributes), 0)
	expect.EQ(t, utr.Name(), "five_prime_UTR:1-265")
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("chr1\tsrc\tgene\t10\t5\t.\t+\t.\tID=x\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Parse(strings.NewReader("chr1\tsrc\tgene\t1\t5\t.\t+\t.\tnoequals\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Parse(strings.NewReader("chr1\tsrc\tgene\tone\t5\t.\t+\t.\tID=x\n"))
	expect.NotNil(t, err)
}

func TestAttributesRoundTrip(t *testing.T) {
	in := "ID=cds-1;Parent=gene-1;Note=a%3Bb;Dbxref=GeneID:43740578"
	attrs, err := ParseAttributes(in)
	assert.NoError(t, err)
	expect.EQ(t, len(attrs), 4)
	expect.EQ(t, attrs[2], Attribute{"Note", "a%3Bb"})
	expect.EQ(t, FormatAttributes(attrs), in)
	expect.EQ(t, FormatAttributes(nil), ".")

	f := &Feature{Attributes: attrs}
	f.SetAttr("Parent", "gene-2")
	f.SetAttr("product", "polyprotein")
	v, ok := f.Attr("Parent")
	expect.True(t, ok)
	expect.EQ(t, v, "gene-2")
	expect.EQ(t, f.Attributes[len(f.Attributes)-1], Attribute{"product", "polyprotein"})
	_, ok = f.Attr("missing")
	expect.False(t, ok)
}

func TestWriteRoundTrip(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	gff, err := Parse(strings.NewReader(testGFF))
	assert.NoError(t, err)
	gff.Features[0].End = 21560

	path := filepath.Join(tmpdir, "out.gff")
	assert.NoError(t, Write(ctx, path, gff))
	got, err := Read(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, got, &File{Header: gff.Header, Features: gff.Features})

	var buf bytes.Buffer
	assert.NoError(t, got.Encode(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.EQ(t, len(lines), 6)
	expect.EQ(t, lines[3], "MN908947.3\tGenbank\tgene\t266\t21560\t.\t+\t.\tID=gene-ORF1ab;Name=ORF1ab;gene=ORF1ab")
	expect.EQ(t, lines[5], "MN908947.3\tGenbank\tfive_prime_UTR\t1\t265\t.\t+\t.\t.")
}

func TestClone(t *testing.T) {
	f := &Feature{Type: "CDS", Start: 1, End: 9, Strand: "+", Attributes: []Attribute{{"ID", "a"}}}
	c := CloneAll([]*Feature{f})[0]
	c.End = 12
	c.SetAttr("ID", "b")
	expect.EQ(t, f.End, 9)
	v, _ := f.Attr("ID")
	expect.EQ(t, v, "a")
	expect.EQ(t, c.Len(), 12)
}
