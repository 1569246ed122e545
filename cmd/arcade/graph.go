package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arcade/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the conversation. With --session, the states the
session visited and the one it is in are highlighted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			s, err := app.Sessions.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session %s: %w", sessionID, err)
			}
			overlay = graph.OverlayFor(s)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Engine.Inspect(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of this session")
}
