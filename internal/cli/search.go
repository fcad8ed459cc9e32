package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/wikisophy/internal/presentation/tui"
	"github.com/aretw0/wikisophy/pkg/domain"
)

// Search prints the articles matching query, as a table or as JSON.
func Search(ctx context.Context, app *App, query string, limit int, jsonMode bool, out io.Writer) error {
	if limit <= 0 {
		limit = app.Config.Server.SearchLimit
	}

	var results []domain.SearchResult
	if strings.TrimSpace(query) != "" {
		var err error
		results, err = app.Engine.Search(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}

	if jsonMode {
		if results == nil {
			results = []domain.SearchResult{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"results": results})
	}
	tui.RenderSearchResults(out, query, results)
	return nil
}
