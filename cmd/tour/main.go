package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/AaronLay10/chaintour/internal/config"
	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/logger"
	"github.com/AaronLay10/chaintour/internal/version"
)

var (
	configPath  string
	catalogPath string
	jsonLogs    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tour",
	Short: "Animated walkthroughs of an execution client's architecture",
	Long: `tour plays scenarios over a diagram of an execution client's components,
lighting up each component and the connections it uses in turn.

Examples:
  tour list                          # Scenarios in the catalog
  tour validate --catalog my.yaml    # Check a catalog file
  tour play block-import --speed 2   # Play a scenario in the terminal`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = config.PathFromEnv()
		}
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if err := logger.Initialize(jsonLogs || cfg.Log.JSON); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file (default: config, then built-in)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log JSON lines instead of console output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(playCmd)
}

// openCatalog loads the catalog named by --catalog, the config, or the
// built-in default, in that order.
func openCatalog() (*diagram.Catalog, error) {
	path := catalogPath
	if path == "" {
		path = cfg.Tour.Catalog
	}
	return diagram.Open(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
