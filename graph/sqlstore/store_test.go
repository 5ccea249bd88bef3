package sqlstore_test

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/globi/db"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/graph/sqlstore"
	globitest "github.com/teranos/globi/internal/testing"
)

func TestNodes(t *testing.T) {
	store := globitest.NewStore(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		n, err := tx.CreateNode(ctx, graph.KindTaxon, graph.Props{"name": "Donalda duckus", "rank": "species"})
		if err != nil {
			return err
		}
		id = n.ID
		return tx.SetProps(ctx, id, graph.Props{"externalId": "EOL:1", "rank": nil})
	}))

	require.NoError(t, store.View(ctx, func(tx graph.Tx) error {
		n, err := tx.Node(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, graph.KindTaxon, n.Kind)
		assert.Equal(t, "Donalda duckus", n.Props.String("name"))
		assert.Equal(t, "EOL:1", n.Props.String("externalId"))
		_, hasRank := n.Props["rank"]
		assert.False(t, hasRank, "nil value removes the key")

		_, err = tx.Node(ctx, id+100)
		assert.True(t, errors.IsNotFoundError(err))
		assert.False(t, errors.IsStoreFailure(err))
		return nil
	}))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	store := globitest.NewStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx graph.Tx) error {
		if _, err := tx.CreateNode(ctx, graph.KindStudy, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Nodes[graph.KindStudy])
}

func TestEdgesAndDegree(t *testing.T) {
	store := globitest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		a, _ := tx.CreateNode(ctx, graph.KindSpecimen, nil)
		b, _ := tx.CreateNode(ctx, graph.KindSpecimen, nil)
		taxon, _ := tx.CreateNode(ctx, graph.KindTaxon, nil)

		_, err := tx.CreateEdge(ctx, a.ID, b.ID, "ATE", graph.Props{"label": "ate"})
		require.NoError(t, err)
		_, err = tx.CreateEdge(ctx, a.ID, taxon.ID, graph.EdgeClassifiedAs, nil)
		require.NoError(t, err)
		_, err = tx.CreateEdge(ctx, b.ID, taxon.ID, graph.EdgeClassifiedAs, nil)
		require.NoError(t, err)

		out, err := tx.Edges(ctx, a.ID, graph.Outgoing)
		require.NoError(t, err)
		assert.Len(t, out, 2)

		ate, err := tx.Edges(ctx, a.ID, graph.Outgoing, "ATE")
		require.NoError(t, err)
		require.Len(t, ate, 1)
		assert.Equal(t, b.ID, ate[0].End)
		assert.Equal(t, "ate", ate[0].Props.String("label"))
		assert.Equal(t, a.ID, ate[0].Other(b.ID))

		in, err := tx.Edges(ctx, taxon.ID, graph.Incoming, graph.EdgeClassifiedAs)
		require.NoError(t, err)
		assert.Len(t, in, 2)

		both, err := tx.Edges(ctx, b.ID, graph.Both)
		require.NoError(t, err)
		assert.Len(t, both, 2)

		deg, err := tx.Degree(ctx, taxon.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, deg)

		require.NoError(t, tx.DeleteEdge(ctx, ate[0].ID))
		deg, err = tx.Degree(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, deg)
		return nil
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Nodes[graph.KindSpecimen])
	assert.Equal(t, 2, stats.Edges[graph.EdgeClassifiedAs])
}

func TestCreateEdgeToMissingNode(t *testing.T) {
	store := globitest.NewStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx graph.Tx) error {
		a, err := tx.CreateNode(ctx, graph.KindSpecimen, nil)
		require.NoError(t, err)
		_, err = tx.CreateEdge(ctx, a.ID, a.ID+42, "ATE", nil)
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestIndex(t *testing.T) {
	store := globitest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		first, _ := tx.CreateNode(ctx, graph.KindTaxon, nil)
		second, _ := tx.CreateNode(ctx, graph.KindTaxon, nil)

		require.NoError(t, tx.AddIndex(ctx, "taxon_name", "Aus", first.ID))
		require.NoError(t, tx.AddIndex(ctx, "taxon_name", "Aus", first.ID), "re-adding is a no-op")
		require.NoError(t, tx.AddIndex(ctx, "taxon_name", "Aus", second.ID))

		ids, err := tx.Lookup(ctx, "taxon_name", "Aus")
		require.NoError(t, err)
		assert.Equal(t, []int64{first.ID, second.ID}, ids)

		ids, err = tx.Lookup(ctx, "taxon_id", "Aus")
		require.NoError(t, err)
		assert.Empty(t, ids, "indexes are separate namespaces")

		id, err := graph.LookupFirst(ctx, tx, "taxon_name", "Aus")
		require.NoError(t, err)
		assert.Equal(t, first.ID, id)
		return nil
	}))
}

func TestForEachNodePages(t *testing.T) {
	store := globitest.NewStore(t)
	ctx := context.Background()

	var created []int64
	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		for i := 0; i < 7; i++ {
			n, err := tx.CreateNode(ctx, graph.KindTaxon, nil)
			require.NoError(t, err)
			created = append(created, n.ID)
		}
		_, err := tx.CreateNode(ctx, graph.KindStudy, nil)
		return err
	}))

	var seen []int64
	require.NoError(t, store.View(ctx, func(tx graph.Tx) error {
		return graph.ForEachNode(ctx, tx, graph.KindTaxon, 3, func(id int64) error {
			seen = append(seen, id)
			return nil
		})
	}))
	assert.Equal(t, created, seen)
}

func TestDriverFailuresAreStoreFailures(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	store := sqlstore.New(database, nil)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nodes (kind, props)")).
		WithArgs(graph.KindTaxon, `{"name":"Aus"}`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = store.Update(ctx, func(tx graph.Tx) error {
		_, err := tx.CreateNode(ctx, graph.KindTaxon, graph.Props{"name": "Aus"})
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.IsStoreFailure(err))
	assert.Contains(t, err.Error(), "insert node")

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))
	err = store.View(ctx, func(graph.Tx) error { return nil })
	assert.True(t, errors.IsStoreFailure(err))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT node_id FROM node_index")).
		WithArgs("taxon_name", "Aus").
		WillReturnRows(sqlmock.NewRows([]string{"node_id"}).AddRow(3).AddRow(9))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	var ids []int64
	err = store.Update(ctx, func(tx graph.Tx) error {
		ids, err = tx.Lookup(ctx, "taxon_name", "Aus")
		return err
	})
	assert.Equal(t, []int64{3, 9}, ids)
	assert.True(t, errors.IsStoreFailure(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedStore(t *testing.T) {
	store, err := sqlstore.Open(filepath.Join(t.TempDir(), "closed.db"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Update(context.Background(), func(graph.Tx) error { return nil })
	assert.True(t, errors.IsStoreFailure(err))
	assert.True(t, errors.Is(err, db.ErrDatabaseClosed))
}
