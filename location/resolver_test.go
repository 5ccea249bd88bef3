package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	globitest "github.com/teranos/globi/internal/testing"
	"github.com/teranos/globi/internal/util"
)

func coords(lat, lon float64, alt *float64) Location {
	return Location{Latitude: &lat, Longitude: &lon, Altitude: alt}
}

func resolveIn(t *testing.T, store graph.Store, r *Resolver, loc Location) (*graph.Node, bool) {
	t.Helper()
	var (
		node    *graph.Node
		created bool
	)
	require.NoError(t, store.Update(context.Background(), func(tx graph.Tx) error {
		var err error
		node, created, err = r.Resolve(context.Background(), tx, loc)
		return err
	}))
	return node, created
}

func TestResolve_ExactTuple(t *testing.T) {
	store := globitest.NewStore(t)
	r := NewResolver(zaptest.NewLogger(t).Sugar())

	withAlt, created := resolveIn(t, store, r, coords(1.2, 1.4, util.Ptr(-1.0)))
	require.NotNil(t, withAlt)
	assert.True(t, created)

	again, created := resolveIn(t, store, r, coords(1.2, 1.4, util.Ptr(-1.0)))
	assert.False(t, created)
	assert.Equal(t, withAlt.ID, again.ID)

	noAlt, created := resolveIn(t, store, r, coords(1.2, 1.4, nil))
	assert.True(t, created, "missing altitude is a distinct location")
	assert.NotEqual(t, withAlt.ID, noAlt.ID)

	other, _ := resolveIn(t, store, r, coords(1.2, 1.5, util.Ptr(-1.0)))
	assert.NotEqual(t, withAlt.ID, other.ID)

	got := FromNode(withAlt)
	assert.Equal(t, 1.2, *got.Latitude)
	assert.Equal(t, 1.4, *got.Longitude)
	assert.Equal(t, -1.0, *got.Altitude)
}

func TestResolve_BackfillFirstWriteWins(t *testing.T) {
	store := globitest.NewStore(t)
	r := NewResolver(zaptest.NewLogger(t).Sugar())

	first, _ := resolveIn(t, store, r, coords(1.2, 1.4, nil))
	assert.Empty(t, first.Props.String(PropFootprint))

	loc := coords(1.2, 1.4, nil)
	loc.FootprintWKT = "POINT(1.4 1.2)"
	withWKT, _ := resolveIn(t, store, r, loc)
	assert.Equal(t, first.ID, withWKT.ID)
	assert.Equal(t, "POINT(1.4 1.2)", withWKT.Props.String(PropFootprint))

	loc = coords(1.2, 1.4, nil)
	loc.FootprintWKT = "POINT(9 9)"
	loc.Locality = "some locality"
	loc.LocalityID = "GEONAMES:123"
	final, _ := resolveIn(t, store, r, loc)
	assert.Equal(t, first.ID, final.ID)

	var stored *graph.Node
	require.NoError(t, store.View(context.Background(), func(tx graph.Tx) error {
		var err error
		stored, err = tx.Node(context.Background(), first.ID)
		return err
	}))
	assert.Equal(t, "POINT(1.4 1.2)", stored.Props.String(PropFootprint), "existing value is kept")
	assert.Equal(t, "some locality", stored.Props.String(PropLocality))
	assert.Equal(t, "GEONAMES:123", stored.Props.String(PropLocalityID))
}

func TestResolve_InvalidCoordinates(t *testing.T) {
	store := globitest.NewStore(t)
	r := NewResolver(zaptest.NewLogger(t).Sugar())

	for _, loc := range []Location{coords(91, 0, nil), coords(0, -180.5, nil), coords(-90.1, 10, nil)} {
		err := store.Update(context.Background(), func(tx graph.Tx) error {
			_, _, err := r.Resolve(context.Background(), tx, loc)
			return err
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidCoordinates))
		assert.True(t, errors.IsMalformedField(err))
	}

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Nodes[graph.KindLocation])
}

func TestResolve_LocalityOnly(t *testing.T) {
	store := globitest.NewStore(t)
	r := NewResolver(zaptest.NewLogger(t).Sugar())

	byID, created := resolveIn(t, store, r, Location{LocalityID: "GEONAMES:1"})
	assert.True(t, created)
	again, created := resolveIn(t, store, r, Location{LocalityID: "GEONAMES:1", Locality: "somewhere"})
	assert.False(t, created)
	assert.Equal(t, byID.ID, again.ID)

	byName, _ := resolveIn(t, store, r, Location{Locality: "somewhere"})
	assert.NotEqual(t, byID.ID, byName.ID, "name key and id key are separate")

	none, created := resolveIn(t, store, r, Location{})
	assert.Nil(t, none)
	assert.False(t, created)
}

func TestAddEnvironments(t *testing.T) {
	store := globitest.NewStore(t)
	r := NewResolver(zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	loc, _ := resolveIn(t, store, r, coords(1.2, 1.4, util.Ptr(-1.0)))
	mud := Environment{ExternalID: "ENVO:00001998", Name: "soil"}

	var firstEnv int64
	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		nodes, err := r.AddEnvironments(ctx, tx, loc.ID, mud)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		firstEnv = nodes[0].ID
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		nodes, err := r.AddEnvironments(ctx, tx, loc.ID, mud)
		require.NoError(t, err)
		assert.Equal(t, firstEnv, nodes[0].ID, "same environment node on repeat")

		envs, err := r.Environments(ctx, tx, loc.ID)
		require.NoError(t, err)
		assert.Len(t, envs, 1, "no duplicate association")
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx graph.Tx) error {
		_, err := r.AddEnvironments(ctx, tx, loc.ID, Environment{Name: "marsh"}, Environment{})
		require.NoError(t, err)
		envs, err := r.Environments(ctx, tx, loc.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []Environment{mud, {Name: "marsh"}}, envs)
		return nil
	}))
}
