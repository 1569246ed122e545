package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arcade/internal/cli"
	"github.com/aretw0/arcade/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "arcade",
	Short: "Arcade is a chat bot that talks about video games",
	Long: `Arcade holds short conversations about video games: it asks what you play on
and your favorite game, answers with facts from the video game sales dataset
and recommends games you have not played yet.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", ".env", "Env file to load before reading ARCADE_* variables")
	flags.String("graph", "", "YAML or JSON conversation graph (default: built-in video game graph)")
	flags.String("fallback", "", "Fallback state of a custom graph")
	flags.String("store", "", "Session store: memory, file or redis (default: redis when ARCADE_REDIS_URL is set)")
	flags.String("session-dir", "", "Directory of the file session store")
	flags.String("data", "", "vgsales CSV file (overrides ARCADE_DATA_PATH)")
	flags.String("catalog-dir", "", "Imported Badger catalog (overrides ARCADE_CATALOG_DIR)")
	flags.String("ontology", "", "JSON or YAML ontology (overrides ARCADE_ONTOLOGY_PATH)")
	flags.Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		cfg.DataPath = v
	}
	if v, _ := cmd.Flags().GetString("catalog-dir"); v != "" {
		cfg.CatalogDir = v
	}
	if v, _ := cmd.Flags().GetString("ontology"); v != "" {
		cfg.OntologyPath = v
	}
	return cfg, nil
}

func appOptions(cmd *cobra.Command) cli.Options {
	graph, _ := cmd.Flags().GetString("graph")
	fallback, _ := cmd.Flags().GetString("fallback")
	store, _ := cmd.Flags().GetString("store")
	dir, _ := cmd.Flags().GetString("session-dir")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{
		GraphPath:  graph,
		Fallback:   fallback,
		Store:      cli.Store(store),
		SessionDir: dir,
		Debug:      debug,
	}
}

// newApp builds the application for commands that hold conversations.
// The caller must Close it.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), cfg, appOptions(cmd))
}
