package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"am"},
	Short:   "Show and validate globi configuration",
	Long: `config (am) - Show and validate globi configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (GLOBI_* prefix, e.g. GLOBI_DATABASE_PATH)
3. Project config (./am.toml or ./config.toml, searched upwards)
4. User config (~/.globi/am.toml)
5. System config (/etc/globi/config.toml)
6. Default values

Examples:
  globi config show                    # Show current configuration
  globi config show --format yaml      # Show configuration as YAML
  globi config get ingest.commit_every # Get a specific value
  globi config validate                # Validate current configuration
  globi config where                   # List the config files consulted`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, aggregate.buffer)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "List the config files consulted, lowest precedence first",
	Args:  cobra.NoArgs,
	RunE:  runConfigWhere,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return writeConfig(cmd.OutOrStdout(), cfg, configFormat)
}

// writeConfig marshals cfg in format. Secrets are omitted in every format.
func writeConfig(w io.Writer, cfg *am.Config, format string) error {
	redacted := *cfg
	redacted.Neo4j.Password = ""
	redacted.GeoNames.Username = ""

	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(redacted, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(redacted)
	case "toml":
		data, err = toml.Marshal(redacted)
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal config to %s", format)
	}
	if format != "json" {
		fmt.Fprintln(w, "# globi configuration")
	}
	_, err = w.Write(data)
	return err
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration files (later overrides earlier, GLOBI_* env overrides all):")
	for _, path := range am.ConfigPaths() {
		state := "missing"
		if _, err := os.Stat(path); err == nil {
			state = "loaded"
		}
		fmt.Fprintf(out, "  [%s] %s\n", state, path)
	}
	return nil
}
