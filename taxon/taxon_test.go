package taxon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/record"
)

func TestFromRecord(t *testing.T) {
	r := record.Record{
		record.TargetTaxonName:      "Mickeya mouseus",
		record.TargetTaxonID:        " EOL:2 ",
		record.TargetTaxonPath:      "Animalia | Mickeya | Mickeya mouseus",
		record.TargetTaxonPathNames: "kingdom|genus|species",
	}
	tx := FromRecord(r, record.SideTarget)
	assert.Equal(t, "Mickeya mouseus", tx.Name)
	assert.Equal(t, "EOL:2", tx.ExternalID)
	assert.Equal(t, map[string]string{"kingdom": "Animalia", "genus": "Mickeya", "species": "Mickeya mouseus"}, tx.RankNames())
	assert.Empty(t, tx.RankIDs())

	assert.True(t, FromRecord(r, record.SideSource).IsBlank())
}

func TestNormalized(t *testing.T) {
	tests := []struct {
		in   Taxon
		want Status
	}{
		{Taxon{Name: "Aus"}, StatusResolved},
		{Taxon{ExternalID: "EOL:1"}, StatusResolved},
		{Taxon{}, StatusNoName},
		{Taxon{Name: "no:match"}, StatusNoMatch},
		{Taxon{Name: "AMBIGUOUS_MATCH"}, StatusAmbiguousMatch},
		{Taxon{Name: "no name", ExternalID: "EOL:1"}, StatusResolved},
	}
	for _, tt := range tests {
		got := tt.in.normalized()
		assert.Equal(t, tt.want, got.Status, "%+v", tt.in)
		_, placeholder := PlaceholderStatus(got.Name)
		assert.False(t, placeholder)
	}
}

func TestPropsRoundTripThroughNode(t *testing.T) {
	in := Taxon{
		Name:      "Aus bus",
		Path:      []string{"Animalia", "Aus", "Aus bus"},
		PathNames: []string{"kingdom", "genus", "species"},
		Status:    StatusResolved,
	}
	out := FromNode(&graph.Node{Props: in.Props()})
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Path, out.Path)
	assert.Equal(t, in.RankNames(), out.RankNames())
	assert.Equal(t, StatusResolved, out.Status)

	sentinel := Taxon{Status: StatusNoMatch}.Props()
	assert.Equal(t, graph.Props{PropStatus: "NO_MATCH"}, sentinel)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, st)

	st, err = ParseStatus("no_match")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, st)

	_, err = ParseStatus("maybe")
	assert.Error(t, err)
}

func TestRankConflict(t *testing.T) {
	p := RankConflict()
	animal := Taxon{Path: []string{"Animalia", "Ursus"}, PathNames: []string{"kingdom", "genus"}}
	fungus := Taxon{Path: []string{"Fungi", "Ursus"}, PathNames: []string{"kingdom", "genus"}}
	bare := Taxon{Name: "Ursus"}

	assert.True(t, p(animal, fungus))
	assert.False(t, p(animal, animal))
	assert.False(t, p(animal, bare))
	assert.False(t, p(bare, fungus))
	bear := Taxon{Path: []string{"Animalia", "Ursidae", "Ursus"}, PathNames: []string{"kingdom", "family", "genus"}}
	odd := Taxon{Path: []string{"Plantae", "Ursidae", "Ursus"}, PathNames: []string{"kingdom", "family", "genus"}}
	assert.False(t, RankConflict("family")(bear, odd), "only configured ranks are compared")
	assert.True(t, RankConflict("family")(animal, fungus), "no shared rank falls back to ancestors")
}

func TestAncestorConflict(t *testing.T) {
	animal := Taxon{Name: "Ursus", Path: []string{"Animalia", "Chordata", "Ursus"}}
	fungus := Taxon{Name: "Ursus", Path: []string{"Fungi", "Ascomycota", "Ursus"}}
	cousin := Taxon{Name: "Ursus", Path: []string{"ANIMALIA", "Ursidae", "Ursus"}}
	leafOnly := Taxon{Name: "Ursus", Path: []string{"Ursus"}}
	unnamed := Taxon{Path: []string{"Fungi", "Ursus"}}

	assert.True(t, AncestorConflict(animal, fungus))
	assert.True(t, AncestorConflict(animal, unnamed), "last element is the leaf when the name is blank")
	assert.False(t, AncestorConflict(animal, cousin), "one shared ancestor is enough, case-insensitive")
	assert.False(t, AncestorConflict(animal, leafOnly))
	assert.False(t, AncestorConflict(Taxon{Name: "Ursus"}, fungus))
}
