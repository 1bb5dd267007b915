package track

import (
	"testing"

	"github.com/nmorel/bvharvest/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerms_GeneTermsFirst(t *testing.T) {
	tr := Track{
		Name:            "mini",
		GeneTerms:       []string{"csgA", "csgB"},
		FunctionalTerms: []string{"curli"},
	}

	terms := tr.Terms()

	require.Len(t, terms, 3)
	assert.Equal(t, query.Term{Text: "csgA", Kind: query.KindGene}, terms[0])
	assert.Equal(t, query.Term{Text: "csgB", Kind: query.KindGene}, terms[1])
	assert.Equal(t, query.Term{Text: "curli", Kind: query.KindFunctional}, terms[2])
}

func TestAll_CanonicalOrder(t *testing.T) {
	all := All()

	require.Len(t, all, 3)
	assert.Equal(t, "amyloids", all[0].Name)
	assert.Equal(t, "copper", all[1].Name)
	assert.Equal(t, "sod", all[2].Name)

	for _, tr := range all {
		assert.NotEmpty(t, tr.GeneTerms, "track %s has no gene terms", tr.Name)
	}
}

func TestByName(t *testing.T) {
	tr, err := ByName("Copper")
	require.NoError(t, err)
	assert.Equal(t, "copper", tr.Name)

	_, err = ByName("histidine")
	assert.ErrorContains(t, err, "unknown track")
}
