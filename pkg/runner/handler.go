package runner

import (
	"context"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/quotes"
)

// Start describes a journey when the runner picks it up.
type Start struct {
	Target   string
	MaxSteps int
	Article  domain.Article
}

// Handler is the strategy used to report a journey.
// This allows switching between Text (CLI/TUI) and JSON (structured) output.
type Handler interface {
	// Begin is called once, before the first step.
	Begin(ctx context.Context, start Start) error

	// Step is called every time an article is appended to the path.
	Step(ctx context.Context, step int, article domain.Article) error

	// Finish is called once with the terminal state.
	Finish(ctx context.Context, state domain.JourneyState) error
}

// ContentRenderer transforms markdown before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the runner to a renderer.
type ContentRenderer func(string) (string, error)

// QuoteSource picks the quote shown when a journey succeeds.
type QuoteSource func() quotes.Quote
