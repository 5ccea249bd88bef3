package neo4jexport

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/interaction"
	globitest "github.com/teranos/globi/internal/testing"
)

type recordingWriter struct {
	taxa         [][]map[string]any
	interactions [][]map[string]any
	err          error
}

func (w *recordingWriter) WriteTaxa(_ context.Context, rows []map[string]any) error {
	w.taxa = append(w.taxa, append([]map[string]any(nil), rows...))
	return w.err
}

func (w *recordingWriter) WriteInteractions(_ context.Context, rows []map[string]any) error {
	w.interactions = append(w.interactions, append([]map[string]any(nil), rows...))
	return w.err
}

func flatten(batches [][]map[string]any) []map[string]any {
	var out []map[string]any
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// seed creates taxa and one summary edge between the first two.
func seed(t *testing.T, store graph.Store, names ...string) []int64 {
	ctx := context.Background()
	var ids []int64
	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		for i, name := range names {
			props := graph.Props{"name": name}
			if i == 0 {
				props["externalId"] = "NCBI:9606"
			}
			n, err := tx.CreateNode(ctx, graph.KindTaxon, props)
			if err != nil {
				return err
			}
			ids = append(ids, n.ID)
		}
		_, err := tx.CreateNode(ctx, graph.KindTaxon, graph.Props{"name": "Homo sapiens L.", "verbatim": true})
		if err != nil {
			return err
		}
		vocab := interaction.Default()
		ate, _ := vocab.ByName("ATE")
		props := vocab.EdgeProps(ate)
		props[interaction.PropCount] = 3
		_, err = tx.CreateEdge(ctx, ids[0], ids[1], ate.Name, props)
		return err
	}))
	return ids
}

func TestTaxonKey(t *testing.T) {
	tests := []struct {
		name  string
		props graph.Props
		want  string
	}{
		{"external id wins", graph.Props{"externalId": "GBIF:1", "name": "Ariopsis felis"}, "GBIF:1"},
		{"name", graph.Props{"name": "Ariopsis felis"}, "Ariopsis felis"},
		{"status", graph.Props{"status": "no name"}, "no name"},
		{"node id", graph.Props{}, "node:12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaxonKey(&graph.Node{ID: 12, Props: tt.props}))
		})
	}
}

func TestExport(t *testing.T) {
	store := globitest.NewStore(t)
	seed(t, store, "Homo sapiens", "Canis lupus")

	w := &recordingWriter{}
	res, err := NewExporter(store, w, 10, zaptest.NewLogger(t).Sugar()).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Taxa: 2, Interactions: 1}, res)

	taxa := flatten(w.taxa)
	require.Len(t, taxa, 2, "verbatim taxa are not exported")
	assert.Equal(t, "NCBI:9606", taxa[0]["key"])
	assert.Equal(t, "Homo sapiens", taxa[0]["name"])
	assert.Equal(t, "Canis lupus", taxa[1]["key"])

	rows := flatten(w.interactions)
	require.Len(t, rows, 1)
	assert.Equal(t, "NCBI:9606", rows[0]["from"])
	assert.Equal(t, "Canis lupus", rows[0]["to"])
	assert.Equal(t, "ATE", rows[0]["type"])
	assert.Equal(t, int64(3), rows[0]["count"])
	assert.NotEmpty(t, rows[0]["iri"])
}

func TestExportBatches(t *testing.T) {
	store := globitest.NewStore(t)
	names := make([]string, 5)
	for i := range names {
		names[i] = "taxon " + strconv.Itoa(i)
	}
	seed(t, store, names...)

	w := &recordingWriter{}
	res, err := NewExporter(store, w, 2, nil).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Taxa)
	require.Len(t, w.taxa, 3)
	assert.Len(t, w.taxa[0], 2)
	assert.Len(t, w.taxa[2], 1)
}

func TestExportWriterFailure(t *testing.T) {
	store := globitest.NewStore(t)
	seed(t, store, "a", "b")

	w := &recordingWriter{err: errors.New("connection reset")}
	_, err := NewExporter(store, w, 10, nil).Export(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, w.interactions, "edges are not written after taxa fail")
}

func TestConnectWithoutURI(t *testing.T) {
	c, err := Connect(context.Background(), am.Neo4jConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, c.Close(context.Background()))
}

func TestExportToNeo4j(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}
	ctx := context.Background()
	c, err := Connect(ctx, am.Neo4jConfig{
		URI:      uri,
		User:     os.Getenv("NEO4J_USER"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer c.Close(ctx)
	c.EnsureSchema(ctx)

	store := globitest.NewStore(t)
	seed(t, store, "Homo sapiens", "Canis lupus")
	res, err := NewExporter(store, c, 100, nil).Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Interactions)
}
