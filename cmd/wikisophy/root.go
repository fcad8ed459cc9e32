package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/wikisophy/internal/cli"
	"github.com/aretw0/wikisophy/internal/config"
	"github.com/spf13/cobra"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "wikisophy.yaml"

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wikisophy",
	Short: "Follow first links on Wikipedia until you reach Philosophy",
	Long: `Wikisophy follows the first link of a Wikipedia article's lead section, hop after hop,
until it reaches Philosophy, falls into a loop, hits a dead end or runs out of steps.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			if _, err := os.Stat(defaultConfigFile); err == nil {
				path = defaultConfigFile
			}
		}

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Log.Format, _ = cmd.Flags().GetString("log-format")
		}

		l, err := loaded.Log.NewLogger()
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newApp builds the application under a context cancelled on SIGINT or SIGTERM.
func newApp(cmd *cobra.Command) (context.Context, *cli.App, func(), error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to release resources", "err", err)
		}
		stop()
	}
	return ctx, app, cleanup, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file (default ./"+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}
