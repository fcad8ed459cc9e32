package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/presentation/tui"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/runner"
)

// ErrNoTitle is returned when neither a title nor a random start was requested
// and no terminal is available to ask for one.
var ErrNoTitle = errors.New("a starting title or --random is required")

// RunOptions configures a journey started from the command line.
type RunOptions struct {
	Title    string
	Random   bool
	JSON     bool
	Target   string
	MaxSteps int

	In  io.Reader
	Out io.Writer
	// Interactive enables the banner, markdown rendering and the title prompt.
	Interactive bool
}

// RunJourney traces a journey and reports it on opts.Out.
func RunJourney(ctx context.Context, app *App, opts RunOptions) (domain.JourneyState, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.MaxSteps < 0 {
		return domain.JourneyState{}, fmt.Errorf("--max-steps must be positive, got %d", opts.MaxSteps)
	}
	interactive := opts.Interactive && !opts.JSON

	if interactive {
		tui.PrintBanner(opts.Out)
	}

	title, err := resolveTitle(ctx, opts, interactive)
	if err != nil {
		return domain.JourneyState{}, err
	}

	jopts := []wikisophy.JourneyOption{
		wikisophy.WithJourneyTarget(opts.Target),
		wikisophy.WithJourneyMaxSteps(opts.MaxSteps),
	}
	var j *wikisophy.Journey
	if opts.Random {
		j, err = app.Engine.BeginRandom(ctx, jopts...)
	} else {
		j, err = app.Engine.Begin(ctx, title, jopts...)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && !opts.Random {
			return domain.JourneyState{}, fmt.Errorf("article %q does not exist: %w", title, err)
		}
		return domain.JourneyState{}, fmt.Errorf("could not start journey: %w", err)
	}

	var handler runner.Handler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.Out)
	} else {
		var hopts []runner.TextHandlerOption
		if interactive {
			hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer(tui.Width(opts.Out))))
		}
		handler = runner.NewTextHandler(opts.Out, hopts...)
	}

	r := runner.NewRunner(runner.WithHandler(handler), runner.WithLogger(app.Logger))
	return r.Run(ctx, j)
}

func resolveTitle(ctx context.Context, opts RunOptions, interactive bool) (string, error) {
	if opts.Random {
		return "", nil
	}
	if opts.Title != "" {
		return runner.SanitizeInput(opts.Title)
	}
	if !interactive {
		return "", ErrNoTitle
	}
	return runner.PromptTitle(ctx, opts.In, opts.Out)
}
