package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/globi/cmd/globi/commands"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/logger"
)

var rootCmd = &cobra.Command{
	Use:   "globi",
	Short: "globi - biotic interaction graph ingestion",
	Long: `globi - resolve interaction records into a graph of studies, specimens,
taxa and locations, and summarize them into taxon-level interactions.

Available commands:
  ingest    - Ingest interaction records (JSONL or TSV)
  aggregate - Build taxon interaction summaries
  export    - Mirror the summary graph to another database
  db        - Inspect the graph database
  config    - Show and validate configuration ("I am")
  version   - Show build information

Examples:
  globi ingest interactions.tsv          # Ingest a tab-separated file
  globi ingest -v --no-doi a.jsonl b.tsv # Several files, no Crossref lookups
  globi aggregate --buffer memory        # Summarize without a disk buffer
  globi db stats                         # Node and edge counts`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines on stderr")

	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.AggregateCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		stop()
		os.Exit(1)
	}
}
