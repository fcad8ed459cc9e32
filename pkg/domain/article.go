package domain

import (
	"net/url"
	"strings"
)

// Article is an immutable snapshot of an article, taken when its preview was obtained.
// A fallback article (preview unavailable) has an empty Extract and no Thumbnail.
type Article struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url"`
}

// Preview is the summary of an article as returned by a preview collaborator.
type Preview struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url,omitempty"`
}

// SearchResult is one entry of a title search.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Article converts the preview into an Article snapshot.
// If the preview carries no URL, one is derived from baseURL.
func (p Preview) Article(baseURL string) Article {
	u := p.URL
	if u == "" {
		u = ArticleURL(baseURL, p.Title)
	}
	return Article{
		Title:     p.Title,
		Extract:   p.Extract,
		Thumbnail: p.Thumbnail,
		URL:       u,
	}
}

// ArticleURL builds the canonical page URL of a title under baseURL
// (e.g. "https://en.wikipedia.org/wiki/").
func ArticleURL(baseURL, title string) string {
	if title == "" {
		return ""
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
