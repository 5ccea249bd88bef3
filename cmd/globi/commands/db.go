package commands

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/globi/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the graph database",
	Long: `Inspect the graph database.

Examples:
  globi db stats                  # Node counts by kind, edge counts by type
  globi db stats --db other.db    # Inspect another database`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node and edge counts",
	Args:  cobra.NoArgs,
	RunE:  runDbStats,
}

var dbStatsPath string

func init() {
	dbStatsCmd.Flags().StringVar(&dbStatsPath, "db", "", "Graph database path (default from config)")
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, path, err := openStore(cfg, dbStatsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to count graph")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n\n", path)
	for _, table := range []pterm.TableData{countTable("Kind", stats.Nodes), countTable("Edge type", stats.Edges)} {
		rendered, err := pterm.DefaultTable.WithHasHeader().WithData(table).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rendered)
		fmt.Fprintln(out)
	}
	return nil
}

// countTable renders counts sorted by label, with a total row.
func countTable(header string, counts map[string]int) pterm.TableData {
	labels := make([]string, 0, len(counts))
	total := 0
	for label, n := range counts {
		labels = append(labels, label)
		total += n
	}
	sort.Strings(labels)

	rows := pterm.TableData{{header, "Count"}}
	for _, label := range labels {
		rows = append(rows, []string{label, fmt.Sprintf("%d", counts[label])})
	}
	return append(rows, []string{"total", fmt.Sprintf("%d", total)})
}
