package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/arcade/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Chat in the console",
	Long: `Starts a conversation in the terminal. Type 'exit' or press Ctrl+C to leave;
with --session and a persistent store the conversation can be resumed later.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		fresh, _ := cmd.Flags().GetBool("fresh")
		plain, _ := cmd.Flags().GetBool("plain")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.RunSession(cmd.Context(), cli.RunOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Fresh:     fresh,
			Plain:     plain,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session ID to create or resume")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")

	// 'arcade' alone starts a console conversation.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
