package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/extract"
	"github.com/aretw0/wikisophy/pkg/ports"
)

// DefaultBaseURL is the page URL prefix used to derive fallback article URLs.
const DefaultBaseURL = "https://en.wikipedia.org/wiki/"

// Resolver turns a title into a StepResult: markup fetch, link extraction, title
// decoding and preview fetch, in that order.
type Resolver struct {
	markup   ports.MarkupFetcher
	previews ports.PreviewFetcher
	baseURL  string
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBaseURL sets the page URL prefix used for fallback previews.
func WithBaseURL(baseURL string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = baseURL
	}
}

// WithResolverLogger sets the logger of the resolver.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the given fetchers.
func NewResolver(markup ports.MarkupFetcher, previews ports.PreviewFetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		markup:   markup,
		previews: previews,
		baseURL:  DefaultBaseURL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves one step from title. It never returns an error: absence becomes
// NoLink, transient markup failures become FetchFailed, and a failed preview fetch
// degrades to a fallback preview carrying only the decoded title.
func (r *Resolver) Resolve(ctx context.Context, title string) domain.StepResult {
	markup, err := r.markup.LeadMarkup(ctx, title)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("lead markup not found", "title", title)
			return domain.NoLink{Title: title}
		}
		r.logger.Warn("lead markup fetch failed", "title", title, "err", err)
		return domain.FetchFailed{Title: title, Err: err}
	}

	link, ok := extract.FirstLink(markup)
	if !ok {
		r.logger.Debug("no qualifying link", "title", title)
		return domain.NoLink{Title: title}
	}

	next, ok := DecodeTitle(link)
	if !ok {
		r.logger.Debug("undecodable link", "title", title, "link", link)
		return domain.NoLink{Title: title}
	}

	preview, err := r.previews.Preview(ctx, next)
	if err != nil {
		r.logger.Debug("preview unavailable, using fallback", "title", next, "err", err)
		preview = domain.Preview{Title: next}
	}
	if preview.Title == "" {
		preview.Title = next
	}
	if preview.URL == "" {
		preview.URL = domain.ArticleURL(r.baseURL, preview.Title)
	}

	return domain.Found{Title: title, Link: link, Preview: preview}
}

// DecodeTitle derives a display title from an article link path: the article prefix
// is removed, the remainder is URL-decoded once, then underscores become spaces.
func DecodeTitle(link string) (string, bool) {
	raw := strings.TrimPrefix(link, domain.ArticlePathPrefix)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	title := strings.TrimSpace(strings.ReplaceAll(decoded, "_", " "))
	if title == "" {
		return "", false
	}
	return title, true
}
