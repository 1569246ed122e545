package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arcade"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of arcade",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arcade version %s\n", strings.TrimSpace(arcade.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
