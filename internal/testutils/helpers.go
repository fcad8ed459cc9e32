package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/wikisophy/pkg/domain"
)

// LeadFor returns a minimal lead section whose first qualifying link points at target.
func LeadFor(target string) string {
	href := domain.ArticlePathPrefix + strings.ReplaceAll(target, " ", "_")
	return fmt.Sprintf(`<p>This article is about <a href="%s">%s</a>.</p>`, href, target)
}

// FakeSource is an in-memory ports.Source for tests.
// Articles absent from Markup or Previews yield domain.ErrNotFound.
type FakeSource struct {
	mu sync.Mutex

	Markup     map[string]string
	Previews   map[string]domain.Preview
	MarkupErr  map[string]error
	PreviewErr map[string]error
	Results    []domain.SearchResult
	Random     []string

	// Gate, when set, makes LeadMarkup block until a value is received or ctx is done.
	Gate chan struct{}
	// Entered, when set, receives the title of every LeadMarkup call before it blocks on Gate.
	Entered chan string

	calls map[string]int
}

// NewFakeSource returns an empty FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		Markup:     map[string]string{},
		Previews:   map[string]domain.Preview{},
		MarkupErr:  map[string]error{},
		PreviewErr: map[string]error{},
		calls:      map[string]int{},
	}
}

// Chain builds a source where titles[i] links to titles[i+1]. The last title has markup
// without links. Every title has a preview.
func Chain(titles ...string) *FakeSource {
	s := NewFakeSource()
	for i, title := range titles {
		s.AddArticle(title, "")
		if i+1 < len(titles) {
			s.Link(title, titles[i+1])
		}
	}
	return s
}

// AddArticle registers title with a linkless lead and a preview.
func (s *FakeSource) AddArticle(title, extract string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if extract == "" {
		extract = title + " is an article."
	}
	s.Markup[title] = "<p>" + extract + "</p>"
	s.Previews[title] = domain.Preview{Title: title, Extract: extract}
}

// Link makes from's lead point at to.
func (s *FakeSource) Link(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Markup[from] = LeadFor(to)
}

// Calls returns how many times op ("markup", "preview", "search", "random") was invoked for key.
// Search and random use an empty key.
func (s *FakeSource) Calls(op, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op+":"+key]
}

// TotalCalls returns the number of LeadMarkup and Preview calls.
func (s *FakeSource) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for k, n := range s.calls {
		if strings.HasPrefix(k, "markup:") || strings.HasPrefix(k, "preview:") {
			total += n
		}
	}
	return total
}

func (s *FakeSource) record(op, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op+":"+key]++
}

func (s *FakeSource) LeadMarkup(ctx context.Context, title string) (string, error) {
	s.record("markup", title)

	if s.Entered != nil {
		s.Entered <- title
	}
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.MarkupErr[title]; err != nil {
		return "", err
	}
	markup, ok := s.Markup[title]
	if !ok {
		return "", fmt.Errorf("markup of %q: %w", title, domain.ErrNotFound)
	}
	return markup, nil
}

func (s *FakeSource) Preview(ctx context.Context, title string) (domain.Preview, error) {
	s.record("preview", title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.PreviewErr[title]; err != nil {
		return domain.Preview{}, err
	}
	p, ok := s.Previews[title]
	if !ok {
		return domain.Preview{}, fmt.Errorf("preview of %q: %w", title, domain.ErrNotFound)
	}
	return p, nil
}

func (s *FakeSource) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	s.record("search", "")
	if strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.SearchResult{}
	for _, r := range s.Results {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(r.Title), strings.ToLower(query)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *FakeSource) RandomTitle(ctx context.Context) (string, error) {
	s.record("random", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Random) == 0 {
		return "", fmt.Errorf("random article: %w", domain.ErrNotFound)
	}
	title := s.Random[0]
	s.Random = s.Random[1:]
	return title, nil
}
