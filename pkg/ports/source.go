package ports

import (
	"context"

	"github.com/aretw0/wikisophy/pkg/domain"
)

// MarkupFetcher retrieves the lead-section markup of an article.
type MarkupFetcher interface {
	// LeadMarkup returns the HTML of the introduction of title.
	// Returns an error wrapping domain.ErrNotFound if the article does not exist.
	// Any other error is considered transient (network, HTTP status, decoding).
	LeadMarkup(ctx context.Context, title string) (string, error)
}

// PreviewFetcher retrieves the summary of an article.
type PreviewFetcher interface {
	// Preview returns the summary of title.
	// Returns an error wrapping domain.ErrNotFound if the article does not exist.
	Preview(ctx context.Context, title string) (domain.Preview, error)
}

// Searcher looks up article titles matching a free-text query.
type Searcher interface {
	// Search returns at most limit results, ordered by relevance.
	// A blank query yields an empty list.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// RandomPicker selects a random article title.
type RandomPicker interface {
	// RandomTitle returns the title of a random main-namespace article.
	// Returns an error wrapping domain.ErrNotFound if none could be picked.
	RandomTitle(ctx context.Context) (string, error)
}

// Source is an encyclopedia backend able to serve every capability a journey needs.
type Source interface {
	MarkupFetcher
	PreviewFetcher
	Searcher
	RandomPicker
}
