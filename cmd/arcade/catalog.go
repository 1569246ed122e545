package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/arcade/internal/cli"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the video game sales catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [vgsales.csv]",
	Short: "Import a vgsales CSV into the Badger catalog",
	Long: `Replaces the catalog in ARCADE_CATALOG_DIR (or --catalog-dir) with the rows of
the given CSV. Without a file the built-in sample is imported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var path string
		if len(args) > 0 {
			path = args[0]
		}

		n, err := cli.ImportCatalog(cmd.Context(), cfg.CatalogDir, path, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s\n", n, cfg.CatalogDir)
		return nil
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the catalog per console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := appOptions(cmd)
		opts.Store = cli.StoreMemory

		app, err := cli.NewApp(cmd.Context(), cfg, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := cli.CatalogStats(cmd.Context(), app.Catalog)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CONSOLE\tGAMES\tSALES (M)\tYEARS\tBEST SELLER")
		for _, st := range stats {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%d-%d\t%s\n", st.Console, st.Games, st.Sales, st.First, st.Last, st.BestSeller)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd, catalogStatsCmd)
}
