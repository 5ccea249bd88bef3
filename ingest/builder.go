// Package ingest turns validated interaction records into Study, Specimen,
// Taxon and Location nodes joined by structural and interaction edges.
package ingest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/interaction"
	"github.com/teranos/globi/location"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/metrics"
	"github.com/teranos/globi/record"
	"github.com/teranos/globi/study"
	"github.com/teranos/globi/taxon"
)

// Link is what one record added to the graph.
type Link struct {
	Study    *graph.Node
	Source   *graph.Node
	Target   *graph.Node
	Location *graph.Node
	// Interaction is the specimen edge; Created is false when it already existed.
	Interaction *graph.Edge
	Created     bool
}

// Builder creates specimens and interaction edges for validated records.
// Like the resolvers it wraps, it assumes a single writer.
type Builder struct {
	vocab     *interaction.Vocabulary
	taxa      *taxon.Resolver
	locations *location.Resolver
	studies   *study.Resolver
	geo       location.GeoNamesService
	metrics   *metrics.Metrics
	runID     string
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithGeoNames looks up coordinates for records with only a locality id.
func WithGeoNames(g location.GeoNamesService) BuilderOption {
	return func(b *Builder) { b.geo = g }
}

// WithVocabulary replaces the default interaction vocabulary.
func WithVocabulary(v *interaction.Vocabulary) BuilderOption {
	return func(b *Builder) { b.vocab = v }
}

// WithRunID stamps created studies and specimens with importRunId.
func WithRunID(id string) BuilderOption {
	return func(b *Builder) { b.runID = id }
}

// WithMetrics counts created entities and external lookups.
func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

// WithClock sets the time used to detect future dates.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithBuilderLogger sets the builder logger.
func WithBuilderLogger(l *zap.SugaredLogger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder over the given resolvers.
func NewBuilder(taxa *taxon.Resolver, locations *location.Resolver, studies *study.Resolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		vocab:     interaction.Default(),
		taxa:      taxa,
		locations: locations,
		studies:   studies,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logger.OrNop(b.logger).Named("ingest.builder")
	return b
}

// Reset drops resolver caches. Call after a rolled back transaction.
func (b *Builder) Reset() {
	b.taxa.Reset()
}

// Build writes one validated record. Data quality problems are logged with
// the record context and returned as warnings; only store failures are
// returned as errors.
func (b *Builder) Build(ctx context.Context, tx graph.Tx, r record.Record) (*Link, []string, error) {
	w := &warnings{record: r, logger: b.logger}

	typ, ok := b.vocab.Lookup(r.Get(record.InteractionTypeID))
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrValidation, "unsupported interaction type id [%s]", r.Get(record.InteractionTypeID))
	}

	s, studyWarnings := study.FromRecord(r)
	w.add(studyWarnings...)
	studyNode, created, err := b.studies.Resolve(ctx, tx, s)
	if err != nil {
		return nil, w.list, err
	}
	if created {
		b.metrics.EntityCreated(graph.KindStudy)
		if err := b.stamp(ctx, tx, studyNode.ID); err != nil {
			return nil, w.list, err
		}
	}

	link := &Link{Study: studyNode}
	if link.Location, err = b.location(ctx, tx, r, w); err != nil {
		return nil, w.list, err
	}

	date, dateWarnings := eventDate(r.First(record.EventDateKeys...), b.now())
	w.add(dateWarnings...)

	refutes := strings.EqualFold(r.Get(record.ArgumentTypeID), record.Refutes)
	if link.Source, err = b.specimen(ctx, tx, r, record.SideSource, studyNode.ID, refutes, date, link.Location); err != nil {
		return nil, w.list, err
	}
	if link.Target, err = b.specimen(ctx, tx, r, record.SideTarget, studyNode.ID, refutes, date, link.Location); err != nil {
		return nil, w.list, err
	}

	link.Interaction, link.Created, err = b.Relate(ctx, tx, link.Source.ID, link.Target.ID, typ)
	if err != nil {
		return nil, w.list, err
	}
	return link, w.list, nil
}

// Relate creates the typ edge between two specimens unless it already
// exists. Self loops are never created.
func (b *Builder) Relate(ctx context.Context, tx graph.Tx, source, target int64, typ interaction.Type) (*graph.Edge, bool, error) {
	e, err := graph.CreateEdgeOnce(ctx, tx, source, target, typ.Name, b.vocab.EdgeProps(typ))
	switch {
	case errors.Is(err, graph.ErrEdgeExists):
		return e, false, nil
	case errors.Is(err, graph.ErrSelfLoop):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return e, true, nil
}

func (b *Builder) specimen(ctx context.Context, tx graph.Tx, r record.Record, side record.Side, studyID int64, refutes bool, date *time.Time, loc *graph.Node) (*graph.Node, error) {
	res, err := b.taxa.Resolve(ctx, tx, taxon.FromRecord(r, side))
	if err != nil {
		return nil, err
	}
	if res.Created {
		b.metrics.EntityCreated(graph.KindTaxon)
	}

	node, err := tx.CreateNode(ctx, graph.KindSpecimen, specimenProps(r, side, date, b.runID))
	if err != nil {
		return nil, err
	}
	b.metrics.EntityCreated(graph.KindSpecimen)

	var structural []string
	if refutes {
		structural = []string{graph.EdgeRefutes}
	} else {
		structural = []string{graph.EdgeCollected, graph.EdgeSupports}
	}
	for _, typ := range structural {
		if _, err := tx.CreateEdge(ctx, studyID, node.ID, typ, nil); err != nil {
			return nil, err
		}
	}

	if _, err := tx.CreateEdge(ctx, node.ID, res.Node.ID, graph.EdgeClassifiedAs, nil); err != nil {
		return nil, err
	}
	original, err := b.originalTaxon(ctx, tx, res)
	if err != nil {
		return nil, err
	}
	if _, err := tx.CreateEdge(ctx, node.ID, original, graph.EdgeOriginallyDescribedAs, nil); err != nil {
		return nil, err
	}

	if loc != nil {
		if _, err := tx.CreateEdge(ctx, node.ID, loc.ID, graph.EdgeCollectedAt, nil); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// originalTaxon is the canonical taxon unless the resolver revised the
// verbatim input, in which case the verbatim description gets its own
// unindexed node.
func (b *Builder) originalTaxon(ctx context.Context, tx graph.Tx, res *taxon.Resolution) (int64, error) {
	if !res.Revised {
		return res.Node.ID, nil
	}
	props := res.Verbatim.Props()
	props[taxon.PropVerbatim] = true
	n, err := tx.CreateNode(ctx, graph.KindTaxon, props)
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}

func (b *Builder) location(ctx context.Context, tx graph.Tx, r record.Record, w *warnings) (*graph.Node, error) {
	loc, locWarnings := location.FromRecord(ctx, r, b.observedGeo())
	w.add(locWarnings...)
	if loc == nil {
		return nil, nil
	}
	node, created, err := b.locations.Resolve(ctx, tx, *loc)
	if errors.Is(err, location.ErrInvalidCoordinates) {
		w.add("found invalid location: [" + err.Error() + "]")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if created {
		b.metrics.EntityCreated(graph.KindLocation)
	}
	if envs := location.EnvironmentsFromRecord(r); len(envs) > 0 {
		if _, err := b.locations.AddEnvironments(ctx, tx, node.ID, envs...); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (b *Builder) observedGeo() location.GeoNamesService {
	if b.geo == nil {
		return nil
	}
	return &observedGeoNames{GeoNamesService: b.geo, metrics: b.metrics}
}

func (b *Builder) stamp(ctx context.Context, tx graph.Tx, id int64) error {
	if b.runID == "" {
		return nil
	}
	return tx.SetProps(ctx, id, graph.Props{PropImportRunID: b.runID})
}

type observedGeoNames struct {
	location.GeoNamesService
	metrics *metrics.Metrics
}

func (o *observedGeoNames) FindLatLng(ctx context.Context, localityID string) (float64, float64, error) {
	lat, lon, err := o.GeoNamesService.FindLatLng(ctx, localityID)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.metrics.ExternalCall("geonames", outcome)
	return lat, lon, err
}

// warnings logs each finding against its record as it is added.
type warnings struct {
	record record.Record
	logger *zap.SugaredLogger
	list   []string
}

func (w *warnings) add(msgs ...string) {
	for _, msg := range msgs {
		w.logger.Warnw(msg, logger.FieldRecord, w.record.Context())
		w.list = append(w.list, msg)
	}
}
