package main

import (
	"errors"
	"os"
	"strings"

	"github.com/aretw0/wikisophy/internal/cli"
	"github.com/aretw0/wikisophy/internal/presentation/tui"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/spf13/cobra"
)

// errJourneyFailed makes the process exit non-zero when an article could not be fetched.
var errJourneyFailed = errors.New("journey stopped on a fetch error")

var runCmd = &cobra.Command{
	Use:   "run [title]",
	Short: "Trace the journey from an article to Philosophy",
	Long: `Follows first links from the given article and prints every hop.
Without a title, a random article is used with --random, otherwise the title is asked for.
Press Ctrl-C to cancel the journey.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		random, _ := cmd.Flags().GetBool("random")
		jsonMode, _ := cmd.Flags().GetBool("json")
		target, _ := cmd.Flags().GetString("target")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")

		ctx, app, cleanup, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := cli.RunJourney(ctx, app, cli.RunOptions{
			Title:       strings.Join(args, " "),
			Random:      random,
			JSON:        jsonMode,
			Target:      target,
			MaxSteps:    maxSteps,
			In:          os.Stdin,
			Out:         cmd.OutOrStdout(),
			Interactive: tui.IsInteractive(os.Stdin) && tui.IsInteractive(os.Stdout),
		})
		if err != nil {
			return err
		}
		if state.Outcome == domain.OutcomeError {
			return errJourneyFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("random", false, "Start from a random article")
	runCmd.Flags().Bool("json", false, "Emit one JSON event per line")
	runCmd.Flags().String("target", "", "Target title (default from configuration)")
	runCmd.Flags().Int("max-steps", 0, "Step budget (default from configuration)")
}
