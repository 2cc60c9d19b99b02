package vcf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3abionet/agvd-cli/internal/table"
)

const sampleVCF = `##fileformat=VCFv4.2
##contig=<ID=19>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr19	7177679	rs116600158	C	T	.	PASS	.
1	100	.	A	G,T	.	PASS	.
`

func TestStage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.vcf")
	require.NoError(t, os.WriteFile(in, []byte(sampleVCF), 0644))

	staged := filepath.Join(dir, "staged.csv")
	n, err := Stage(in, staged)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tbl, _, err := table.Read(staged)
	require.NoError(t, err)
	assert.Equal(t, []string{StagedColumn}, tbl.Columns())

	ids, ok := tbl.Column(StagedColumn)
	require.True(t, ok)
	// chr prefix stripped, first alternate allele used.
	assert.Equal(t, []string{"19_7177679_C_T", "1_100_A_G"}, ids)
}

func TestStage_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Stage(filepath.Join(dir, "nope.vcf"), filepath.Join(dir, "out.csv"))
	require.Error(t, err)
}
