package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/wikisophy/pkg/domain"
)

type summaryResponse struct {
	Title  string `json:"title"`
	Titles struct {
		Normalized string `json:"normalized"`
	} `json:"titles"`
	Extract   string `json:"extract"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Preview returns the REST summary of title.
func (c *Client) Preview(ctx context.Context, title string) (domain.Preview, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Preview{}, fmt.Errorf("empty title: %w", domain.ErrNotFound)
	}

	body, err := c.get(ctx, c.restURL+"/page/summary/"+url.PathEscape(pathTitle(title)))
	if err != nil {
		return domain.Preview{}, fmt.Errorf("failed to fetch summary of %q: %w", title, err)
	}

	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Preview{}, fmt.Errorf("failed to decode summary: %w", err)
	}

	// The normalized title already uses spaces.
	name := resp.Titles.Normalized
	if name == "" {
		name = strings.ReplaceAll(resp.Title, "_", " ")
	}
	p := domain.Preview{
		Title:   name,
		Extract: resp.Extract,
		URL:     resp.ContentURLs.Desktop.Page,
	}
	if resp.Thumbnail != nil {
		p.Thumbnail = resp.Thumbnail.Source
	}
	if p.URL == "" {
		p.URL = domain.ArticleURL(c.pageURL, p.Title)
	}
	return p, nil
}
