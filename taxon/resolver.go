// Package taxon resolves taxa mentioned by interaction records to canonical
// Taxon nodes.
//
// Lookups go by external id when one is given and by exact name otherwise.
// Candidates are filtered by a homonym predicate so that taxa sharing a name
// but placed in different classifications stay separate. Taxa with neither
// a usable name nor id resolve to one shared sentinel node per status; those
// sentinels live in their own index and never answer name or id lookups.
package taxon

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/logger"
)

// Index names.
const (
	IndexName     = "taxon_name"
	IndexID       = "taxon_id"
	IndexSentinel = "taxon_sentinel"
)

// Corrector revises a verbatim taxon, e.g. fixing spelling or mapping a
// synonym to its accepted name. Implementations live outside this package.
type Corrector interface {
	Correct(ctx context.Context, t Taxon) (Taxon, error)
}

// Resolution is the outcome of resolving one verbatim taxon.
type Resolution struct {
	// Node is the canonical taxon.
	Node *graph.Node
	// Verbatim is the input as given, after placeholder normalization.
	Verbatim Taxon
	// Revised is set when a Corrector changed the name or id.
	Revised bool
	// Created is set when Node was created by this call.
	Created bool
}

type cacheKey struct {
	index string
	value string
}

// Resolver resolves taxa against a graph transaction. It is built once per
// ingestion run and is not safe for concurrent use.
type Resolver struct {
	homonym   HomonymPredicate
	corrector Corrector
	cache     *lru.Cache
	logger    *zap.SugaredLogger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithHomonymPredicate replaces the default RankConflict predicate.
func WithHomonymPredicate(p HomonymPredicate) Option {
	return func(r *Resolver) error {
		if p == nil {
			return errors.New("homonym predicate is nil")
		}
		r.homonym = p
		return nil
	}
}

// WithCorrector enables taxon correction.
func WithCorrector(c Corrector) Option {
	return func(r *Resolver) error {
		r.corrector = c
		return nil
	}
}

// WithCacheSize caches index lookups; 0 disables the cache.
func WithCacheSize(size int) Option {
	return func(r *Resolver) error {
		if size <= 0 {
			r.cache = nil
			return nil
		}
		c, err := lru.New(size)
		if err != nil {
			return errors.Wrap(err, "create taxon cache")
		}
		r.cache = c
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) error {
		r.logger = logger.OrNop(l).Named("taxon.resolver")
		return nil
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		homonym: RankConflict(),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Reset drops cached lookups. Call it after a transaction rolls back, since
// cached ids may point at nodes that were never committed.
func (r *Resolver) Reset() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// Resolve returns the canonical taxon for input, creating it when unknown.
// Only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, tx graph.Tx, input Taxon) (*Resolution, error) {
	verbatim := input.normalized()
	res := &Resolution{Verbatim: verbatim}

	if verbatim.Status.IsSentinel() {
		node, created, err := r.sentinel(ctx, tx, verbatim)
		if err != nil {
			return nil, err
		}
		res.Node, res.Created = node, created
		return res, nil
	}

	// Known verbatim values, including aliases left by earlier corrections,
	// short-circuit the corrector.
	node, err := r.Find(ctx, tx, verbatim)
	if err != nil {
		return nil, err
	}
	if node != nil {
		res.Node = node
		return res, nil
	}

	canonical := r.correct(ctx, verbatim)
	res.Revised = canonical.Name != verbatim.Name || canonical.ExternalID != verbatim.ExternalID
	if res.Revised {
		if node, err = r.Find(ctx, tx, canonical); err != nil {
			return nil, err
		}
	}
	if node == nil {
		if node, err = r.create(ctx, tx, canonical); err != nil {
			return nil, err
		}
		res.Created = true
	}
	res.Node = node

	if res.Revised {
		if err := r.alias(ctx, tx, verbatim, canonical, node.ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Find looks up an existing taxon without creating one. The external id
// wins over the name; names of a single character are never looked up.
func (r *Resolver) Find(ctx context.Context, tx graph.Tx, input Taxon) (*graph.Node, error) {
	input = input.normalized()
	if input.Status.IsSentinel() {
		return nil, nil
	}
	switch {
	case input.ExternalID != "":
		return r.findBy(ctx, tx, IndexID, input.ExternalID, input)
	case len(input.Name) > 1:
		return r.findBy(ctx, tx, IndexName, input.Name, input)
	default:
		return nil, nil
	}
}

// FindByName returns the oldest resolved taxon indexed under name.
func (r *Resolver) FindByName(ctx context.Context, tx graph.Tx, name string) (*graph.Node, error) {
	return r.findBy(ctx, tx, IndexName, name, Taxon{})
}

// FindByID returns the oldest resolved taxon indexed under externalID.
func (r *Resolver) FindByID(ctx context.Context, tx graph.Tx, externalID string) (*graph.Node, error) {
	return r.findBy(ctx, tx, IndexID, externalID, Taxon{})
}

func (r *Resolver) findBy(ctx context.Context, tx graph.Tx, index, value string, input Taxon) (*graph.Node, error) {
	if value == "" {
		return nil, nil
	}
	if _, placeholder := PlaceholderStatus(value); placeholder {
		return nil, nil
	}

	ids, err := r.lookup(ctx, tx, index, value)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		node, err := tx.Node(ctx, id)
		if errors.IsNotFoundError(err) {
			// stale cache entry from a rolled back transaction
			r.Reset()
			return r.findBy(ctx, tx, index, value, input)
		}
		if err != nil {
			return nil, err
		}
		candidate := FromNode(node)
		if candidate.Status.IsSentinel() {
			continue
		}
		if r.homonym(candidate, input) {
			r.logger.Debugw("Skipping homonym",
				logger.FieldTaxonName, input.Name,
				logger.FieldNodeID, id,
			)
			continue
		}
		return node, nil
	}
	return nil, nil
}

func (r *Resolver) lookup(ctx context.Context, tx graph.Tx, index, value string) ([]int64, error) {
	key := cacheKey{index: index, value: value}
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			return cached.([]int64), nil
		}
	}
	ids, err := tx.Lookup(ctx, index, value)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Add(key, ids)
	}
	return ids, nil
}

func (r *Resolver) addIndex(ctx context.Context, tx graph.Tx, index, value string, id int64) error {
	if r.cache != nil {
		r.cache.Remove(cacheKey{index: index, value: value})
	}
	return tx.AddIndex(ctx, index, value, id)
}

func (r *Resolver) create(ctx context.Context, tx graph.Tx, t Taxon) (*graph.Node, error) {
	t.Status = StatusResolved
	node, err := tx.CreateNode(ctx, graph.KindTaxon, t.Props())
	if err != nil {
		return nil, err
	}
	if t.Name != "" {
		if err := r.addIndex(ctx, tx, IndexName, t.Name, node.ID); err != nil {
			return nil, err
		}
	}
	if t.ExternalID != "" {
		if err := r.addIndex(ctx, tx, IndexID, t.ExternalID, node.ID); err != nil {
			return nil, err
		}
	}
	r.logger.Debugw("Created taxon",
		logger.FieldTaxonName, t.Name,
		logger.FieldTaxonID, t.ExternalID,
		logger.FieldNodeID, node.ID,
	)
	return node, nil
}

// sentinel returns the shared placeholder node for the taxon's status.
func (r *Resolver) sentinel(ctx context.Context, tx graph.Tx, t Taxon) (*graph.Node, bool, error) {
	key := string(t.Status)
	ids, err := r.lookup(ctx, tx, IndexSentinel, key)
	if err != nil {
		return nil, false, err
	}
	if len(ids) > 0 {
		node, err := tx.Node(ctx, ids[0])
		if errors.IsNotFoundError(err) {
			r.Reset()
			return r.sentinel(ctx, tx, t)
		}
		return node, false, err
	}

	node, err := tx.CreateNode(ctx, graph.KindTaxon, Taxon{Status: t.Status}.Props())
	if err != nil {
		return nil, false, err
	}
	if err := r.addIndex(ctx, tx, IndexSentinel, key, node.ID); err != nil {
		return nil, false, err
	}
	r.logger.Debugw("Created sentinel taxon", "status", key, logger.FieldNodeID, node.ID)
	return node, true, nil
}

// alias indexes the verbatim name and id under the canonical node unless
// another entity already answers to them.
func (r *Resolver) alias(ctx context.Context, tx graph.Tx, verbatim, canonical Taxon, nodeID int64) error {
	if verbatim.Name != "" && verbatim.Name != canonical.Name {
		existing, err := r.lookup(ctx, tx, IndexName, verbatim.Name)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			if err := r.addIndex(ctx, tx, IndexName, verbatim.Name, nodeID); err != nil {
				return err
			}
		}
	}
	if verbatim.ExternalID != "" && verbatim.ExternalID != canonical.ExternalID {
		existing, err := r.lookup(ctx, tx, IndexID, verbatim.ExternalID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			if err := r.addIndex(ctx, tx, IndexID, verbatim.ExternalID, nodeID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) correct(ctx context.Context, verbatim Taxon) Taxon {
	if r.corrector == nil {
		return verbatim
	}
	corrected, err := r.corrector.Correct(ctx, verbatim)
	if err != nil {
		r.logger.Warnw("Taxon correction failed, keeping verbatim",
			logger.FieldTaxonName, verbatim.Name,
			logger.FieldTaxonID, verbatim.ExternalID,
			logger.FieldError, err.Error(),
		)
		return verbatim
	}
	corrected = corrected.normalized()
	if corrected.Status.IsSentinel() {
		return verbatim
	}
	return corrected
}
