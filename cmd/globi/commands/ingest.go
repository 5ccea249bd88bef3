package commands

import (
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/ingest"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/record"
)

// IngestCmd ingests interaction record files into the graph store
var IngestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest interaction records",
	Long: `Ingest interaction records into the graph database.

Each record is validated, its taxa, location and study are resolved to
existing nodes where possible, and a specimen pair joined by the
interaction is added. Invalid records are skipped with a warning; a
database failure stops the run.

Files are read as JSONL (one object per line) or TSV (header row). With
--format auto the extension decides: .jsonl, .ndjson and .json are JSONL,
anything else is TSV.

Examples:
  globi ingest interactions.tsv
  globi ingest --format jsonl --commit-every 500 dump.txt
  globi ingest --json --no-geonames a.tsv b.tsv > stats.jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var (
	ingestFormat      string
	ingestDBPath      string
	ingestJSON        bool
	ingestNoDOI       bool
	ingestNoGeoNames  bool
	ingestCommitEvery int
)

func init() {
	IngestCmd.Flags().StringVar(&ingestFormat, "format", "auto", "Record format: auto, jsonl, tsv")
	IngestCmd.Flags().StringVar(&ingestDBPath, "db", "", "Graph database path (default from config)")
	IngestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Emit progress and stats as JSON lines on stdout")
	IngestCmd.Flags().BoolVar(&ingestNoDOI, "no-doi", false, "Skip Crossref DOI and citation lookups")
	IngestCmd.Flags().BoolVar(&ingestNoGeoNames, "no-geonames", false, "Skip GeoNames coordinate lookups")
	IngestCmd.Flags().IntVar(&ingestCommitEvery, "commit-every", 0, "Records per write transaction (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, err := record.ParseFormat(ingestFormat)
	if err != nil {
		return err
	}
	if ingestCommitEvery < 0 {
		return errors.Newf("--commit-every must be >= 0, got %d", ingestCommitEvery)
	}

	runID := uuid.NewString()
	ctx := logger.WithRunID(cmd.Context(), runID)
	log := logger.LoggerFromContext(ctx, logger.Logger).Named("ingest")

	store, dbPath, err := openStore(cfg, ingestDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sources := make([]record.Source, 0, len(args))
	for _, path := range args {
		src, closer, err := record.OpenFile(path, format)
		if err != nil {
			return err
		}
		defer closer.Close()
		sources = append(sources, src)
	}

	m := newMetrics(cfg)
	builder, err := newBuilder(cfg, resolverFlags{noDOI: ingestNoDOI, noGeoNames: ingestNoGeoNames}, runID, m, log)
	if err != nil {
		return err
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	commitEvery := cfg.Ingest.CommitEvery
	if ingestCommitEvery > 0 {
		commitEvery = ingestCommitEvery
	}
	in := ingest.NewIngester(store, record.NewValidator(nil, log), builder, ingest.IngesterConfig{
		CommitEvery:   commitEvery,
		ProgressEvery: cfg.Ingest.ProgressEvery,
		RunID:         runID,
		Emitter:       newEmitter(cmd.OutOrStdout(), ingestJSON, verbosity),
		Metrics:       m,
		Logger:        log,
	})

	log.Infow("Starting ingestion", logger.FieldPath, dbPath, logger.FieldCount, len(args), logger.FieldBatchSize, commitEvery)
	stats, err := ingest.RunPipeline(ctx, in, sources...)
	writeMetrics(cfg, m, log)
	if err != nil {
		return errors.Wrapf(err, "ingestion stopped after %d records", stats.Seen)
	}
	log.Infow("Ingestion complete",
		"seen", stats.Seen,
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		logger.FieldDurationMS, stats.DurationMs,
	)
	return nil
}

func newEmitter(w io.Writer, jsonOutput bool, verbosity int) ingest.ProgressEmitter {
	if jsonOutput {
		return ingest.NewJSONEmitter(w)
	}
	return ingest.NewCLIEmitter(verbosity)
}
