package am

import "github.com/teranos/globi/errors"

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	// Zero means "commit everything in one transaction" is not supported: the
	// single-writer model needs bounded transactions.
	if c.Ingest.CommitEvery <= 0 {
		return errors.Newf("ingest.commit_every must be > 0, got %d", c.Ingest.CommitEvery)
	}
	if c.Ingest.ProgressEvery < 0 {
		return errors.Newf("ingest.progress_every must be >= 0, got %d", c.Ingest.ProgressEvery)
	}

	if c.Taxon.CacheSize < 0 {
		return errors.Newf("taxon.cache_size must be >= 0, got %d", c.Taxon.CacheSize)
	}

	if c.Aggregate.BatchSize <= 0 {
		return errors.Newf("aggregate.batch_size must be > 0, got %d", c.Aggregate.BatchSize)
	}
	if c.Aggregate.ReportEvery < 0 {
		return errors.Newf("aggregate.report_every must be >= 0, got %d", c.Aggregate.ReportEvery)
	}
	switch c.Aggregate.Buffer {
	case BufferMemory, BufferBadger:
	default:
		return errors.Newf("aggregate.buffer must be %q or %q, got %q", BufferMemory, BufferBadger, c.Aggregate.Buffer)
	}

	if c.DOI.Enabled {
		if c.DOI.BaseURL == "" {
			return errors.New("doi.base_url cannot be empty when enabled")
		}
		if c.DOI.TimeoutSeconds <= 0 {
			return errors.Newf("doi.timeout_seconds must be > 0, got %d", c.DOI.TimeoutSeconds)
		}
		if c.DOI.RequestsPerSecond < 0 {
			return errors.Newf("doi.requests_per_second must be >= 0, got %f", c.DOI.RequestsPerSecond)
		}
	}

	if c.GeoNames.Enabled {
		if c.GeoNames.Username == "" {
			return errors.WithHint(
				errors.New("geonames.username cannot be empty when enabled"),
				"set GLOBI_GEONAMES_USERNAME or disable geonames")
		}
		if c.GeoNames.TimeoutSeconds <= 0 {
			return errors.Newf("geonames.timeout_seconds must be > 0, got %d", c.GeoNames.TimeoutSeconds)
		}
	}

	if c.Neo4j.URI != "" && c.Neo4j.BatchSize <= 0 {
		return errors.Newf("neo4j.batch_size must be > 0, got %d", c.Neo4j.BatchSize)
	}

	return nil
}
