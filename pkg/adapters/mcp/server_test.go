package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/testutils"
	"github.com/aretw0/wikisophy/pkg/adapters/mcp"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	IsError           bool            `json:"isError"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	Content           []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func newServer(t *testing.T, src *testutils.FakeSource) *mcp.Server {
	t.Helper()
	eng, err := wikisophy.New(src)
	require.NoError(t, err)
	return mcp.NewServer(eng)
}

func call(t *testing.T, s *mcp.Server, tool string, args map[string]any) toolResult {
	t.Helper()
	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": tool, "arguments": args},
	})
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), req)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result *toolResult     `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope), string(data))
	require.NotNil(t, envelope.Result, string(data))
	return *envelope.Result
}

func TestServer_NextLink(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	src.MarkupErr["Offline"] = errors.New("connection refused")
	s := newServer(t, src)

	res := call(t, s, "next_link", map[string]any{"title": "Cat"})
	require.False(t, res.IsError)
	var step domain.StepResponse
	require.NoError(t, json.Unmarshal(res.StructuredContent, &step))
	require.NotNil(t, step.NextLink)
	assert.Equal(t, "/wiki/Mammal", *step.NextLink)

	res = call(t, s, "next_link", map[string]any{"title": "Mammal"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"title":"Mammal","nextLink":null,"nextPreview":null}`, string(res.StructuredContent))

	res = call(t, s, "next_link", map[string]any{"title": "Offline"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "connection refused")
}

func TestServer_TraceJourney(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal", "Philosophy")
	src.Markup["Loop"] = testutils.LeadFor("Loop")
	src.Previews["Loop"] = domain.Preview{Title: "Loop"}
	s := newServer(t, src)

	t.Run("Success", func(t *testing.T) {
		res := call(t, s, "trace_journey", map[string]any{"title": "Cat"})
		require.False(t, res.IsError, res.Content)
		var trace mcp.TraceResponse
		require.NoError(t, json.Unmarshal(res.StructuredContent, &trace))
		assert.Equal(t, domain.OutcomeSuccess, trace.Outcome)
		assert.Equal(t, 2, trace.Steps)
		require.NotNil(t, trace.Quote)
		assert.NotEmpty(t, trace.Quote.Author)
	})

	t.Run("Budget And Target", func(t *testing.T) {
		res := call(t, s, "trace_journey", map[string]any{"title": "Cat", "max_steps": 1, "target": "Logic"})
		var trace mcp.TraceResponse
		require.NoError(t, json.Unmarshal(res.StructuredContent, &trace))
		assert.Equal(t, domain.OutcomeDeadEnd, trace.Outcome)
		assert.Nil(t, trace.Quote)
	})

	t.Run("Cycle", func(t *testing.T) {
		res := call(t, s, "trace_journey", map[string]any{"title": "Loop"})
		var trace mcp.TraceResponse
		require.NoError(t, json.Unmarshal(res.StructuredContent, &trace))
		assert.Equal(t, domain.OutcomeCycle, trace.Outcome)
		assert.Len(t, trace.Path, 1)
	})

	t.Run("Missing Start", func(t *testing.T) {
		res := call(t, s, "trace_journey", map[string]any{"title": "Ghost"})
		assert.True(t, res.IsError)
	})
}

func TestServer_SearchAndRandom(t *testing.T) {
	src := testutils.NewFakeSource()
	for i := 0; i < 12; i++ {
		src.Results = append(src.Results, domain.SearchResult{Title: fmt.Sprintf("Kant %d", i)})
	}
	src.Random = []string{"Stoicism"}
	s := newServer(t, src)

	res := call(t, s, "search_articles", map[string]any{"query": "kant"})
	var search mcp.SearchResponse
	require.NoError(t, json.Unmarshal(res.StructuredContent, &search))
	assert.Len(t, search.Results, domain.DefaultSearchLimit)

	res = call(t, s, "search_articles", map[string]any{"query": "kant", "limit": 3})
	require.NoError(t, json.Unmarshal(res.StructuredContent, &search))
	assert.Len(t, search.Results, 3)

	res = call(t, s, "search_articles", map[string]any{"query": " "})
	assert.JSONEq(t, `{"results":[]}`, string(res.StructuredContent))

	res = call(t, s, "random_article", nil)
	assert.JSONEq(t, `{"title":"Stoicism"}`, string(res.StructuredContent))

	res = call(t, s, "random_article", nil)
	assert.True(t, res.IsError)
}

func TestServer_Resources(t *testing.T) {
	s := newServer(t, testutils.NewFakeSource())

	req := []byte(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"wikisophy://config"}}`)
	data, err := json.Marshal(s.MCPServer().HandleMessage(context.Background(), req))
	require.NoError(t, err)
	assert.Contains(t, string(data), `\"target\":\"philosophy\"`)
	assert.Contains(t, string(data), `\"max_steps\":50`)
}
