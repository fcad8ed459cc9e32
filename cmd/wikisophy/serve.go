package main

import (
	"github.com/aretw0/wikisophy/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the search, preview and step endpoints, server-side journeys with
live event streams, the OpenAPI document at /openapi.yaml and metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, cleanup, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		return cli.Serve(ctx, app, port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from configuration)")
}
