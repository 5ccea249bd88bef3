package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "globi.db")

	v.SetDefault("ingest.commit_every", 1) // one record per transaction keeps partial imports queryable
	v.SetDefault("ingest.progress_every", 1000)

	v.SetDefault("taxon.cache_size", 4096)
	v.SetDefault("taxon.homonym_ranks", []string{"kingdom", "phylum", "class", "order", "family", "genus"})

	v.SetDefault("aggregate.batch_size", 1000)
	v.SetDefault("aggregate.report_every", 1000)
	v.SetDefault("aggregate.buffer", BufferBadger)
	v.SetDefault("aggregate.buffer_path", "")

	v.SetDefault("doi.enabled", false)
	v.SetDefault("doi.base_url", "https://api.crossref.org")
	v.SetDefault("doi.timeout_seconds", 10)
	v.SetDefault("doi.requests_per_second", 5.0)

	v.SetDefault("geonames.enabled", false)
	v.SetDefault("geonames.base_url", "http://api.geonames.org")
	v.SetDefault("geonames.timeout_seconds", 10)
	v.SetDefault("geonames.requests_per_second", 1.0) // free accounts are throttled hard

	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.timeout_seconds", 10)
	v.SetDefault("neo4j.max_pool_size", 50)
	v.SetDefault("neo4j.batch_size", 500)

	v.SetDefault("metrics.enabled", false)
}

// BindSensitiveEnvVars explicitly binds credentials to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("geonames.username", "GLOBI_GEONAMES_USERNAME")
	_ = v.BindEnv("neo4j.password", "GLOBI_NEO4J_PASSWORD")
	_ = v.BindEnv("neo4j.uri", "GLOBI_NEO4J_URI", "NEO4J_URI")
}
