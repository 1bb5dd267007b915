package genomes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reps.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleTSV = "genome_id\tgenome_name\trep100\trep200\n" +
	"83333.111\tEscherichia coli K-12\t83333.111\t83333.111\n" +
	"511145.12\tEscherichia coli BW25113\t83333.111\t83333.111\n" +
	"\t\t\t\n" +
	"224308.43\tBacillus subtilis 168\t224308.43\t224308.43\n" +
	"bad-row\n"

func TestLoad(t *testing.T) {
	path := writeTSV(t, sampleTSV)

	got, err := Load(path, 0)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Genome{
		ID:     "83333.111",
		Name:   "Escherichia coli K-12",
		Rep100: "83333.111",
		Rep200: "83333.111",
	}, got[0])
	assert.Equal(t, "224308.43", got[2].ID)
}

func TestLoad_Limit(t *testing.T) {
	path := writeTSV(t, sampleTSV)

	got, err := Load(path, 2)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "511145.12", got[1].ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.tsv"), 0)
	assert.Error(t, err)
}

func TestLoad_ShortColumns(t *testing.T) {
	path := writeTSV(t, "genome_id\tgenome_name\n12345.1\tSome organism\n")

	got, err := Load(path, 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Rep100)
	assert.Empty(t, got[0].Rep200)
}

func TestIDs(t *testing.T) {
	ids := IDs([]Genome{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, []string{"a", "b"}, ids)
}
