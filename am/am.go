// Package am loads and validates globi configuration ("I am").
//
// Sources, lowest to highest precedence: defaults, /etc/globi/config.toml,
// ~/.globi/am.toml, the nearest project am.toml (or config.toml), GLOBI_*
// environment variables.
package am

// Config represents the complete globi configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" toml:"database" yaml:"database" json:"database"`
	Ingest    IngestConfig    `mapstructure:"ingest" toml:"ingest" yaml:"ingest" json:"ingest"`
	Taxon     TaxonConfig     `mapstructure:"taxon" toml:"taxon" yaml:"taxon" json:"taxon"`
	Aggregate AggregateConfig `mapstructure:"aggregate" toml:"aggregate" yaml:"aggregate" json:"aggregate"`
	DOI       DOIConfig       `mapstructure:"doi" toml:"doi" yaml:"doi" json:"doi"`
	GeoNames  GeoNamesConfig  `mapstructure:"geonames" toml:"geonames" yaml:"geonames" json:"geonames"`
	Neo4j     Neo4jConfig     `mapstructure:"neo4j" toml:"neo4j" yaml:"neo4j" json:"neo4j"`
	Metrics   MetricsConfig   `mapstructure:"metrics" toml:"metrics" yaml:"metrics" json:"metrics"`
}

// DatabaseConfig configures the SQLite graph store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

// IngestConfig configures record ingestion
type IngestConfig struct {
	CommitEvery   int `mapstructure:"commit_every" toml:"commit_every" yaml:"commit_every" json:"commit_every"`       // records per write transaction
	ProgressEvery int `mapstructure:"progress_every" toml:"progress_every" yaml:"progress_every" json:"progress_every"` // 0 = no progress output
}

// TaxonConfig configures the taxon resolver
type TaxonConfig struct {
	CacheSize    int      `mapstructure:"cache_size" toml:"cache_size" yaml:"cache_size" json:"cache_size"`             // 0 = no candidate cache
	HomonymRanks []string `mapstructure:"homonym_ranks" toml:"homonym_ranks" yaml:"homonym_ranks" json:"homonym_ranks"` // ranks compared to tell homonyms apart
}

// AggregateConfig configures the taxon interaction aggregator
type AggregateConfig struct {
	BatchSize   int    `mapstructure:"batch_size" toml:"batch_size" yaml:"batch_size" json:"batch_size"`
	ReportEvery int    `mapstructure:"report_every" toml:"report_every" yaml:"report_every" json:"report_every"`
	Buffer      string `mapstructure:"buffer" toml:"buffer" yaml:"buffer" json:"buffer"`                // memory | badger
	BufferPath  string `mapstructure:"buffer_path" toml:"buffer_path" yaml:"buffer_path" json:"buffer_path"` // empty = temp dir
}

// DOIConfig configures the Crossref DOI resolver
type DOIConfig struct {
	Enabled           bool    `mapstructure:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	BaseURL           string  `mapstructure:"base_url" toml:"base_url" yaml:"base_url" json:"base_url"`
	Mailto            string  `mapstructure:"mailto" toml:"mailto" yaml:"mailto" json:"mailto"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
}

// GeoNamesConfig configures the GeoNames locality lookup
type GeoNamesConfig struct {
	Enabled           bool    `mapstructure:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	BaseURL           string  `mapstructure:"base_url" toml:"base_url" yaml:"base_url" json:"base_url"`
	Username          string  `mapstructure:"username" toml:"username" yaml:"username" json:"username"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
}

// Neo4jConfig configures the optional Neo4j export
type Neo4jConfig struct {
	URI            string `mapstructure:"uri" toml:"uri" yaml:"uri" json:"uri"`
	User           string `mapstructure:"user" toml:"user" yaml:"user" json:"user"`
	Password       string `mapstructure:"password" toml:"password" yaml:"password" json:"-"`
	Database       string `mapstructure:"database" toml:"database" yaml:"database" json:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxPoolSize    int    `mapstructure:"max_pool_size" toml:"max_pool_size" yaml:"max_pool_size" json:"max_pool_size"`
	BatchSize      int    `mapstructure:"batch_size" toml:"batch_size" yaml:"batch_size" json:"batch_size"`
}

// MetricsConfig configures Prometheus metrics output
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	Textfile string `mapstructure:"textfile" toml:"textfile" yaml:"textfile" json:"textfile"` // written at the end of a run
}

// Aggregation buffer kinds
const (
	BufferMemory = "memory"
	BufferBadger = "badger"
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
