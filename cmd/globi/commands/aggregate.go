package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/globi/aggregate"
	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/logger"
)

// AggregateCmd builds taxon-level interaction summaries
var AggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build taxon interaction summaries",
	Long: `Count specimen interactions per (source taxon, interaction type, target taxon)
and write one summary edge per distinct triple, carrying the count.

Earlier summaries are replaced. Counting spills to a badger buffer on disk
by default so that large graphs do not have to fit in memory.

Examples:
  globi aggregate
  globi aggregate --buffer memory --batch-size 5000
  globi aggregate --buffer-path /scratch/globi-agg`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

var (
	aggregateDBPath     string
	aggregateBuffer     string
	aggregateBufferPath string
	aggregateBatchSize  int
)

func init() {
	AggregateCmd.Flags().StringVar(&aggregateDBPath, "db", "", "Graph database path (default from config)")
	AggregateCmd.Flags().StringVar(&aggregateBuffer, "buffer", "", "Count buffer: memory or badger (default from config)")
	AggregateCmd.Flags().StringVar(&aggregateBufferPath, "buffer-path", "", "Directory for the badger buffer (default: temporary)")
	AggregateCmd.Flags().IntVar(&aggregateBatchSize, "batch-size", 0, "Summary edges per write transaction (default from config)")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Logger.Named("aggregate")

	kind := cfg.Aggregate.Buffer
	if aggregateBuffer != "" {
		kind = aggregateBuffer
	}
	bufferPath := cfg.Aggregate.BufferPath
	if aggregateBufferPath != "" {
		bufferPath = aggregateBufferPath
	}
	batchSize := cfg.Aggregate.BatchSize
	if aggregateBatchSize > 0 {
		batchSize = aggregateBatchSize
	}

	buffer, err := openBuffer(kind, bufferPath)
	if err != nil {
		return err
	}
	defer buffer.Close()

	store, _, err := openStore(cfg, aggregateDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	m := newMetrics(cfg)
	created, err := aggregate.New(store, buffer, aggregate.Config{
		BatchSize:   batchSize,
		ReportEvery: cfg.Aggregate.ReportEvery,
		Metrics:     m,
		Logger:      log,
	}).Aggregate(cmd.Context())
	writeMetrics(cfg, m, log)
	if err != nil {
		return errors.Wrapf(err, "aggregation stopped after %d summary edges", created)
	}

	pterm.Success.Printfln("Created %d taxon interactions", created)
	return nil
}

func openBuffer(kind, path string) (aggregate.Buffer, error) {
	switch kind {
	case am.BufferMemory:
		return aggregate.NewMemoryBuffer(), nil
	case am.BufferBadger, "":
		return aggregate.OpenBadgerBuffer(aggregate.BadgerConfig{Path: path, Logger: logger.Logger.Named("badger")})
	default:
		return nil, errors.Newf("unknown buffer %q (want %s or %s)", kind, am.BufferMemory, am.BufferBadger)
	}
}
