package location

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/logger"
)

// Index names.
const (
	IndexLocation    = "location"
	IndexEnvironment = "environment"
)

// Resolver maps locations and environments to canonical nodes.
type Resolver struct {
	logger *zap.SugaredLogger
}

// NewResolver creates a Resolver.
func NewResolver(log *zap.SugaredLogger) *Resolver {
	return &Resolver{logger: logger.OrNop(log).Named("location.resolver")}
}

// Find returns the existing node for loc, or nil.
func (r *Resolver) Find(ctx context.Context, tx graph.Tx, loc Location) (*graph.Node, error) {
	key := loc.Key()
	if key == "" {
		return nil, nil
	}
	id, err := graph.LookupFirst(ctx, tx, IndexLocation, key)
	if err != nil || id == 0 {
		return nil, err
	}
	return tx.Node(ctx, id)
}

// Resolve returns the canonical node for loc, creating it on first sight.
// On a hit, locality and footprint are filled in only where still blank.
// Out-of-range coordinates return ErrInvalidCoordinates and create nothing.
func (r *Resolver) Resolve(ctx context.Context, tx graph.Tx, loc Location) (*graph.Node, bool, error) {
	if err := loc.Validate(); err != nil {
		return nil, false, err
	}
	key := loc.Key()
	if key == "" {
		return nil, false, nil
	}

	node, err := r.Find(ctx, tx, loc)
	if err != nil {
		return nil, false, err
	}
	if node != nil {
		return node, false, r.backfill(ctx, tx, node, loc)
	}

	node, err = tx.CreateNode(ctx, graph.KindLocation, loc.Props())
	if err != nil {
		return nil, false, err
	}
	if err := tx.AddIndex(ctx, IndexLocation, key, node.ID); err != nil {
		return nil, false, err
	}
	r.logger.Debugw("Created location", "key", key, logger.FieldNodeID, node.ID)
	return node, true, nil
}

func (r *Resolver) backfill(ctx context.Context, tx graph.Tx, node *graph.Node, loc Location) error {
	updates := graph.Props{}
	for k, v := range loc.backfillable() {
		if v != "" && node.Props.String(k) == "" {
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.SetProps(ctx, node.ID, updates); err != nil {
		return err
	}
	for k, v := range updates {
		node.Props[k] = v
	}
	return nil
}

// AddEnvironments links the location to each environment, creating
// environment nodes as needed. Links already present are kept once.
// Returns the environment nodes in argument order.
func (r *Resolver) AddEnvironments(ctx context.Context, tx graph.Tx, locationID int64, envs ...Environment) ([]*graph.Node, error) {
	existing, err := tx.Edges(ctx, locationID, graph.Outgoing, graph.EdgeHasEnvironment)
	if err != nil {
		return nil, err
	}
	linked := make(map[int64]bool, len(existing))
	for _, e := range existing {
		linked[e.End] = true
	}

	var nodes []*graph.Node
	for _, env := range envs {
		key := env.Key()
		if key == "" {
			continue
		}
		node, err := r.environment(ctx, tx, env)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		if linked[node.ID] {
			continue
		}
		if _, err := tx.CreateEdge(ctx, locationID, node.ID, graph.EdgeHasEnvironment, nil); err != nil {
			return nil, err
		}
		linked[node.ID] = true
	}
	return nodes, nil
}

// Environments lists the environments linked to a location.
func (r *Resolver) Environments(ctx context.Context, tx graph.Tx, locationID int64) ([]Environment, error) {
	edges, err := tx.Edges(ctx, locationID, graph.Outgoing, graph.EdgeHasEnvironment)
	if err != nil {
		return nil, err
	}
	envs := make([]Environment, 0, len(edges))
	for _, e := range edges {
		n, err := tx.Node(ctx, e.End)
		if err != nil {
			return nil, err
		}
		envs = append(envs, Environment{
			ExternalID: n.Props.String(PropEnvExternalID),
			Name:       n.Props.String(PropEnvName),
		})
	}
	return envs, nil
}

func (r *Resolver) environment(ctx context.Context, tx graph.Tx, env Environment) (*graph.Node, error) {
	id, err := graph.LookupFirst(ctx, tx, IndexEnvironment, env.Key())
	if err != nil {
		return nil, err
	}
	if id != 0 {
		return tx.Node(ctx, id)
	}

	props := graph.Props{}
	if env.ExternalID != "" {
		props[PropEnvExternalID] = env.ExternalID
	}
	if env.Name != "" {
		props[PropEnvName] = env.Name
	}
	node, err := tx.CreateNode(ctx, graph.KindEnvironment, props)
	if err != nil {
		return nil, err
	}
	return node, tx.AddIndex(ctx, IndexEnvironment, env.Key(), node.ID)
}
