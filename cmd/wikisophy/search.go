package main

import (
	"strings"

	"github.com/aretw0/wikisophy/internal/cli"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Wikipedia article titles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx, app, cleanup, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		return cli.Search(ctx, app, strings.Join(args, " "), limit, jsonMode, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "n", 0, "Maximum number of results (default from configuration)")
	searchCmd.Flags().Bool("json", false, "Print results as JSON")
}
