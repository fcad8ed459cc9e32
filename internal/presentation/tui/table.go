package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/jedib0t/go-pretty/v6/table"
)

const descriptionPreviewLength = 60

// RenderSearchResults writes results as a table to w.
func RenderSearchResults(w io.Writer, query string, results []domain.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No articles found for %q\n", query)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 4},
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: descriptionPreviewLength},
	})
	t.AppendHeader(table.Row{"#", "Title", "Description"})
	for i, r := range results {
		desc := strings.Join(strings.Fields(r.Description), " ")
		if desc == "" {
			desc = "-"
		}
		t.AppendRow(table.Row{i + 1, r.Title, truncate(desc, descriptionPreviewLength)})
	}
	t.AppendFooter(table.Row{"Total", len(results), fmt.Sprintf("Query: %s", query)})
	t.Render()
}

// RenderPath writes the visited articles of a journey as a table to w.
func RenderPath(w io.Writer, state domain.JourneyState) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Step", "Article", "URL"})
	for i, a := range state.Path {
		t.AppendRow(table.Row{i, a.Title, a.URL})
	}
	t.AppendFooter(table.Row{"", string(state.Outcome), fmt.Sprintf("%d steps", state.Steps())})
	t.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
