package commands

import (
	"go.uber.org/zap"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/external/crossref"
	"github.com/teranos/globi/external/geonames"
	"github.com/teranos/globi/internal/httpclient"
	"github.com/teranos/globi/ingest"
	"github.com/teranos/globi/location"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/metrics"
	"github.com/teranos/globi/study"
	"github.com/teranos/globi/taxon"
	"github.com/teranos/globi/version"
)

// resolverFlags switch external lookups off regardless of configuration.
type resolverFlags struct {
	noDOI      bool
	noGeoNames bool
}

// newBuilder wires the resolvers into a relationship builder.
func newBuilder(cfg *am.Config, flags resolverFlags, runID string, m *metrics.Metrics, log *zap.SugaredLogger) (*ingest.Builder, error) {
	taxa, err := taxon.NewResolver(
		taxon.WithLogger(log),
		taxon.WithCacheSize(cfg.Taxon.CacheSize),
		taxon.WithHomonymPredicate(taxon.RankConflict(cfg.Taxon.HomonymRanks...)),
	)
	if err != nil {
		return nil, err
	}

	studyOpts := []study.Option{study.WithLogger(log), study.WithMetrics(m)}
	if cfg.DOI.Enabled && !flags.noDOI {
		opts := httpclient.Options{UserAgent: version.Get().UserAgent(cfg.DOI.Mailto)}
		studyOpts = append(studyOpts, study.WithDOIResolver(crossref.New(cfg.DOI, opts, log)))
	}

	builderOpts := []ingest.BuilderOption{
		ingest.WithRunID(runID),
		ingest.WithMetrics(m),
		ingest.WithBuilderLogger(log),
	}
	if cfg.GeoNames.Enabled && !flags.noGeoNames {
		opts := httpclient.Options{UserAgent: version.Get().UserAgent("")}
		builderOpts = append(builderOpts, ingest.WithGeoNames(geonames.New(cfg.GeoNames, opts, log)))
	}

	return ingest.NewBuilder(taxa, location.NewResolver(log), study.NewResolver(studyOpts...), builderOpts...), nil
}

// newMetrics returns a collector set when metrics are enabled, else nil.
func newMetrics(cfg *am.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

func writeMetrics(cfg *am.Config, m *metrics.Metrics, log *zap.SugaredLogger) {
	if m == nil || cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warnw("Failed to write metrics textfile", logger.FieldPath, cfg.Metrics.Textfile, logger.FieldError, err)
	}
}
