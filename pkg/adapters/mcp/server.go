package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/quotes"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SearchArgs are the arguments of the search_articles tool.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse is the output of the search_articles tool.
type SearchResponse struct {
	Results []domain.SearchResult `json:"results" jsonschema_description:"Matching article titles"`
}

// RandomResponse is the output of the random_article tool.
type RandomResponse struct {
	Title string `json:"title" jsonschema_description:"Title of a random article"`
}

// TitleArgs are the arguments of the next_link tool.
type TitleArgs struct {
	Title string `json:"title"`
}

// TraceArgs are the arguments of the trace_journey tool.
type TraceArgs struct {
	Title    string `json:"title"`
	MaxSteps int    `json:"max_steps,omitempty"`
	Target   string `json:"target,omitempty"`
}

// TraceResponse is the output of the trace_journey tool.
type TraceResponse struct {
	Outcome domain.Outcome   `json:"outcome" jsonschema_description:"How the journey ended: success, cycle, dead_end, error or cancelled"`
	Steps   int              `json:"steps" jsonschema_description:"Number of links followed"`
	Path    []domain.Article `json:"path" jsonschema_description:"Visited articles in order"`
	Quote   *quotes.Quote    `json:"quote,omitempty" jsonschema_description:"A philosophy quote, on success"`
}

// Server wraps the Wikisophy Engine and exposes it as an MCP Server.
type Server struct {
	engine       *wikisophy.Engine
	mcpServer    *server.MCPServer
	traceTimeout time.Duration
	logger       *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTraceTimeout bounds the duration of one trace_journey call.
func WithTraceTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.traceTimeout = d
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *wikisophy.Engine, opts ...Option) *Server {
	s := &Server{
		engine:       engine,
		mcpServer:    server.NewMCPServer("wikisophy-mcp", strings.TrimSpace(wikisophy.Version)),
		traceTimeout: 2 * time.Minute,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Search Wikipedia article titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		mcp.WithOutputSchema[SearchResponse](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	s.mcpServer.AddTool(mcp.NewTool("random_article",
		mcp.WithDescription("Pick a random Wikipedia article title."),
		mcp.WithOutputSchema[RandomResponse](),
	), mcp.NewStructuredToolHandler(s.handleRandom))

	s.mcpServer.AddTool(mcp.NewTool("next_link",
		mcp.WithDescription("Find the first qualifying link of an article's lead section and preview its target."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Article title")),
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleNextLink))

	s.mcpServer.AddTool(mcp.NewTool("trace_journey",
		mcp.WithDescription("Follow first links from an article until reaching the target, a cycle, a dead end or the step budget."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Starting article title")),
		mcp.WithNumber("max_steps", mcp.Description("Step budget (default 50)")),
		mcp.WithString("target", mcp.Description("Target title (default Philosophy)")),
		mcp.WithOutputSchema[TraceResponse](),
	), mcp.NewStructuredToolHandler(s.handleTrace))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args SearchArgs) (SearchResponse, error) {
	if strings.TrimSpace(args.Query) == "" {
		return SearchResponse{Results: []domain.SearchResult{}}, nil
	}
	results, err := s.engine.Search(ctx, args.Query, args.Limit)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return SearchResponse{Results: results}, nil
}

func (s *Server) handleRandom(ctx context.Context, request mcp.CallToolRequest, _ struct{}) (RandomResponse, error) {
	title, err := s.engine.RandomTitle(ctx)
	if err != nil {
		return RandomResponse{}, fmt.Errorf("random article failed: %w", err)
	}
	return RandomResponse{Title: title}, nil
}

func (s *Server) handleNextLink(ctx context.Context, request mcp.CallToolRequest, args TitleArgs) (domain.StepResponse, error) {
	if strings.TrimSpace(args.Title) == "" {
		return domain.StepResponse{}, errors.New("title is required")
	}
	result := s.engine.ResolveStep(ctx, args.Title)
	if failed, ok := result.(domain.FetchFailed); ok {
		return domain.StepResponse{}, fmt.Errorf("failed to fetch %q: %w", args.Title, failed.Err)
	}
	return domain.NewStepResponse(result), nil
}

func (s *Server) handleTrace(ctx context.Context, request mcp.CallToolRequest, args TraceArgs) (TraceResponse, error) {
	if args.MaxSteps < 0 {
		return TraceResponse{}, errors.New("max_steps must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, s.traceTimeout)
	defer cancel()

	j, err := s.engine.Begin(ctx, args.Title,
		wikisophy.WithJourneyMaxSteps(args.MaxSteps),
		wikisophy.WithJourneyTarget(strings.TrimSpace(args.Target)),
	)
	if err != nil {
		return TraceResponse{}, err
	}
	state, err := j.Run(ctx)
	if err != nil {
		return TraceResponse{}, fmt.Errorf("journey failed: %w", err)
	}
	s.logger.Info("MCP trace finished", "title", args.Title, "outcome", state.Outcome, "steps", state.Steps())

	resp := TraceResponse{Outcome: state.Outcome, Steps: state.Steps(), Path: state.Path}
	if state.Outcome == domain.OutcomeSuccess {
		q := quotes.Random()
		resp.Quote = &q
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("wikisophy://config", "Journey Configuration",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(map[string]any{
			"target":    s.engine.Target(),
			"max_steps": s.engine.MaxSteps(),
		})
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "wikisophy://config",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("wikisophy://quote", "Philosophy Quote",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "wikisophy://quote",
				MIMEType: "text/plain",
				Text:     quotes.Random().String(),
			},
		}, nil
	})
}
