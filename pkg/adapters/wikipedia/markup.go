package wikipedia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aretw0/wikisophy/pkg/domain"
)

type parseResponse struct {
	Parse *struct {
		Title string `json:"title"`
		Text  struct {
			HTML string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// LeadMarkup returns the HTML of the lead section of title, following redirects.
func (c *Client) LeadMarkup(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("empty title: %w", domain.ErrNotFound)
	}
	if c.leadMode == LeadModePage {
		return c.pageLead(ctx, title)
	}
	return c.parseLead(ctx, title)
}

func (c *Client) parseLead(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":    {"parse"},
		"page":      {title},
		"format":    {"json"},
		"prop":      {"text"},
		"section":   {"0"},
		"redirects": {"1"},
	}
	body, err := c.get(ctx, c.apiURL+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("failed to fetch lead of %q: %w", title, err)
	}

	var resp parseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("parse %q: %s: %w", title, resp.Error.Code, domain.ErrNotFound)
	}
	if resp.Parse == nil || resp.Parse.Text.HTML == "" {
		return "", fmt.Errorf("parse %q returned no text: %w", title, domain.ErrNotFound)
	}
	return resp.Parse.Text.HTML, nil
}

// pageLead downloads the rendered article and keeps the children of the content
// container up to the first section heading.
func (c *Client) pageLead(ctx context.Context, title string) (string, error) {
	body, err := c.get(ctx, c.pageURL+url.PathEscape(pathTitle(title)))
	if err != nil {
		return "", fmt.Errorf("failed to fetch page of %q: %w", title, err)
	}
	lead, err := SliceLead(body)
	if err != nil {
		return "", fmt.Errorf("page %q: %w", title, err)
	}
	return lead, nil
}

// SliceLead extracts the lead section from a full article page.
func SliceLead(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	content := doc.Find(".mw-parser-output").First()
	if content.Length() == 0 {
		return "", fmt.Errorf("no article content: %w", domain.ErrNotFound)
	}

	var b strings.Builder
	content.Children().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Is("h2") || s.Is("div.mw-heading") {
			return false
		}
		html, err := goquery.OuterHtml(s)
		if err == nil {
			b.WriteString(html)
		}
		return true
	})
	return b.String(), nil
}
