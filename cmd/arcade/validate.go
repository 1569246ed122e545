package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arcade/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the graph for consistency",
	Long: `Compiles the conversation graph and reports unknown targets, bad patterns,
unknown macros and states that cannot be reached from the start.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := appOptions(cmd)
		opts.Store = cli.StoreMemory

		app, err := cli.NewApp(cmd.Context(), cfg, opts)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer app.Close()

		g := app.Engine.Inspect()
		fmt.Fprintf(cmd.OutOrStdout(), "Graph %s is valid: %d states, start %s\n", app.Engine.Name, len(g.Nodes), g.Start)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
