package study

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/metrics"
)

// Index names.
const (
	IndexReference  = "study_reference"
	IndexExternalID = "study_external_id"
)

// DOIResolver looks up DOIs and citations in an external registry.
type DOIResolver interface {
	FindDOIForReference(ctx context.Context, citation string) (string, error)
	FindCitationForDOI(ctx context.Context, doi string) (string, error)
}

// Resolver maps reference ids to Study nodes.
type Resolver struct {
	doi     DOIResolver
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDOIResolver enables DOI enrichment of newly created studies.
func WithDOIResolver(d DOIResolver) Option {
	return func(r *Resolver) { r.doi = d }
}

// WithMetrics records external lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the resolver logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrNop(r.logger).Named("study.resolver")
	return r
}

// Find returns the study for referenceID, or nil.
func (r *Resolver) Find(ctx context.Context, tx graph.Tx, referenceID string) (*graph.Node, error) {
	id, err := graph.LookupFirst(ctx, tx, IndexReference, referenceID)
	if err != nil || id == 0 {
		return nil, err
	}
	return tx.Node(ctx, id)
}

// FindByExternalID returns the first study with the given externalId, or nil.
func (r *Resolver) FindByExternalID(ctx context.Context, tx graph.Tx, externalID string) (*graph.Node, error) {
	id, err := graph.LookupFirst(ctx, tx, IndexExternalID, externalID)
	if err != nil || id == 0 {
		return nil, err
	}
	return tx.Node(ctx, id)
}

// Resolve returns the study for s.ReferenceID, creating and enriching it on
// first sight. An existing study is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, tx graph.Tx, s Study) (*graph.Node, bool, error) {
	if s.ReferenceID == "" {
		return nil, false, errors.NewInvalidRequestError("study without reference id")
	}
	node, err := r.Find(ctx, tx, s.ReferenceID)
	if err != nil || node != nil {
		return node, false, err
	}

	s = r.enrich(ctx, s)
	node, err = tx.CreateNode(ctx, graph.KindStudy, s.Props())
	if err != nil {
		return nil, false, err
	}
	if err := tx.AddIndex(ctx, IndexReference, s.ReferenceID, node.ID); err != nil {
		return nil, false, err
	}
	if s.ExternalID != "" {
		if err := tx.AddIndex(ctx, IndexExternalID, s.ExternalID, node.ID); err != nil {
			return nil, false, err
		}
	}
	r.logger.Debugw("Created study", logger.FieldReferenceID, s.ReferenceID, logger.FieldDOI, s.DOI)
	return node, true, nil
}

// enrich fills DOI, citation and externalId. Lookup failures leave the
// fields as they were.
func (r *Resolver) enrich(ctx context.Context, s Study) Study {
	if IsURL(s.Citation) {
		s.ExternalID = s.Citation
		return s
	}

	if s.DOI == "" && s.Citation != "" && r.doi != nil {
		found, err := r.doi.FindDOIForReference(ctx, s.Citation)
		r.observe("doi", err)
		switch {
		case err != nil:
			r.logger.Warnw("Failed to resolve DOI",
				logger.FieldReferenceID, s.ReferenceID,
				logger.FieldError, err)
		case found != "":
			if doi, perr := ParseDOI(found); perr == nil {
				s.DOI = doi
			} else {
				r.logger.Warnw("Resolver returned malformed DOI",
					logger.FieldReferenceID, s.ReferenceID,
					logger.FieldDOI, found)
			}
		}
	}

	if s.DOI != "" && s.Citation == "" && r.doi != nil {
		citation, err := r.doi.FindCitationForDOI(ctx, s.DOI)
		r.observe("citation", err)
		if err != nil {
			r.logger.Warnw("Failed to resolve citation",
				logger.FieldDOI, s.DOI,
				logger.FieldError, err)
		} else {
			s.Citation = citation
		}
	}

	if s.DOI != "" {
		s.ExternalID = ExternalIDForDOI(s.DOI)
	}
	return s
}

func (r *Resolver) observe(call string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.metrics.ExternalCall("crossref_"+call, outcome)
}
