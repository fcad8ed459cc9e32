package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/wikisophy/pkg/domain"
)

// Search runs an opensearch query. A blank query returns an empty list without a request.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	params := url.Values{
		"action": {"opensearch"},
		"format": {"json"},
		"search": {query},
		"limit":  {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, c.apiURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}

	// Response tuple: [query, titles, descriptions, urls]
	var tuple []json.RawMessage
	if err := json.Unmarshal(body, &tuple); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	column := func(i int) []string {
		var out []string
		if i < len(tuple) {
			_ = json.Unmarshal(tuple[i], &out)
		}
		return out
	}
	titles, descriptions, urls := column(1), column(2), column(3)

	results := make([]domain.SearchResult, 0, len(titles))
	for i, title := range titles {
		r := domain.SearchResult{Title: title}
		if i < len(descriptions) {
			r.Description = descriptions[i]
		}
		if i < len(urls) {
			r.URL = urls[i]
		}
		results = append(results, r)
	}
	return results, nil
}

type randomResponse struct {
	Query struct {
		Random []struct {
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query"`
}

// RandomTitle returns a random main-namespace article title.
func (c *Client) RandomTitle(ctx context.Context) (string, error) {
	params := url.Values{
		"action":      {"query"},
		"list":        {"random"},
		"rnnamespace": {"0"},
		"rnlimit":     {"1"},
		"format":      {"json"},
	}
	body, err := c.get(ctx, c.apiURL+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("failed to fetch random article: %w", err)
	}

	var resp randomResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode random response: %w", err)
	}
	if len(resp.Query.Random) == 0 || resp.Query.Random[0].Title == "" {
		return "", fmt.Errorf("empty random response: %w", domain.ErrNotFound)
	}
	return resp.Query.Random[0].Title, nil
}
