package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/export/neo4jexport"
	"github.com/teranos/globi/logger"
)

// ExportCmd groups exports of the summary graph
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Mirror the summary graph to another database",
}

var exportNeo4jCmd = &cobra.Command{
	Use:   "neo4j",
	Short: "Export taxa and taxon interactions to Neo4j",
	Long: `Merge every taxon and every summary edge into Neo4j. Taxa are keyed by
external id, else name; interactions become INTERACTS_WITH relationships
carrying the interaction type, label and count. Run aggregate first.

Connection settings come from the neo4j config section; the password is
read from GLOBI_NEO4J_PASSWORD.

Examples:
  GLOBI_NEO4J_URI=neo4j://localhost:7687 globi export neo4j`,
	Args: cobra.NoArgs,
	RunE: runExportNeo4j,
}

var (
	exportDBPath    string
	exportBatchSize int
)

func init() {
	exportNeo4jCmd.Flags().StringVar(&exportDBPath, "db", "", "Graph database path (default from config)")
	exportNeo4jCmd.Flags().IntVar(&exportBatchSize, "batch-size", 0, "Rows per Neo4j transaction (default from config)")
	ExportCmd.AddCommand(exportNeo4jCmd)
}

func runExportNeo4j(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := logger.Logger

	client, err := neo4jexport.Connect(ctx, cfg.Neo4j, log)
	if err != nil {
		return err
	}
	if client == nil {
		return errors.WithHint(errors.New("neo4j.uri is not configured"), "set GLOBI_NEO4J_URI or neo4j.uri in am.toml")
	}
	defer client.Close(ctx)
	client.EnsureSchema(ctx)

	store, _, err := openStore(cfg, exportDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	batchSize := cfg.Neo4j.BatchSize
	if exportBatchSize > 0 {
		batchSize = exportBatchSize
	}
	res, err := neo4jexport.NewExporter(store, client, batchSize, log).Export(ctx)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Exported %d taxa and %d taxon interactions\n", res.Taxa, res.Interactions)
	return nil
}
