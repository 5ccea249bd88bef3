package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/globi/graph"
)

func TestDefaultVocabulary(t *testing.T) {
	v := Default()
	assert.Contains(t, v.Names(), "ATE")
	assert.Contains(t, v.Names(), "INTERACTS_WITH")

	for _, typ := range v.Types() {
		inv := v.InverseOf(typ)
		require.NotEmpty(t, inv.Name, "type %s has an inverse", typ.Name)
		assert.Equal(t, typ.Name, v.InverseOf(inv).Name, "inverse of inverse of %s", typ.Name)
	}
}

func TestLookup(t *testing.T) {
	v := Default()
	tests := []struct {
		id   string
		want string
	}{
		{"http://purl.obolibrary.org/obo/RO_0002470", "ATE"},
		{"RO:0002470", "ATE"},
		{"ATE", "ATE"},
		{"eaten_by", "EATEN_BY"},
		{" RO:0002437 ", "INTERACTS_WITH"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			typ, ok := v.Lookup(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, typ.Name)
		})
	}

	for _, unknown := range []string{"", "RO:9999999", "http://example.org/eats", "devours"} {
		_, ok := v.Lookup(unknown)
		assert.False(t, ok, unknown)
	}
}

func TestLabelFrom(t *testing.T) {
	v := Default()
	ate, _ := v.ByName("ATE")
	edge := &graph.Edge{Start: 1, End: 2, Type: ate.Name, Props: v.EdgeProps(ate)}

	assert.Equal(t, "ate", v.LabelFrom(edge, 1))
	assert.Equal(t, "eaten by", v.LabelFrom(edge, 2))
	assert.Equal(t, "eaten by", edge.Props.String(PropInverse))

	sym, _ := v.ByName("INTERACTS_WITH")
	assert.True(t, sym.Symmetric())
	symEdge := &graph.Edge{Start: 1, End: 2, Type: sym.Name}
	assert.Equal(t, v.LabelFrom(symEdge, 1), v.LabelFrom(symEdge, 2))

	assert.Empty(t, v.LabelFrom(&graph.Edge{Type: graph.EdgeClassifiedAs}, 1))
}

func TestCURIE(t *testing.T) {
	typ, _ := Default().ByName("POLLINATES")
	assert.Equal(t, "RO:0002455", typ.CURIE())
}

func TestParseRejectsBrokenPairs(t *testing.T) {
	_, err := Parse([]byte(`
[[type]]
name = "ATE"
iri = "http://purl.obolibrary.org/obo/RO_0002470"
label = "ate"
inverse = "EATEN_BY"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown inverse")

	_, err = Parse([]byte(`[[type]]
name = "X"`))
	assert.Error(t, err)

	_, err = Parse([]byte(`not toml =`))
	assert.Error(t, err)
}
