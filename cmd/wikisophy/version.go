package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/wikisophy"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of wikisophy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wikisophy version %s\n", strings.TrimSpace(wikisophy.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
