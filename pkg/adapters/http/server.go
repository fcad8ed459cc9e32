package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes an Engine and its server-side journeys over HTTP.
type Server struct {
	Engine   *wikisophy.Engine
	Journeys *session.Manager
	Streams  *StreamManager

	metrics     http.Handler
	sessionOpts []session.Option
	logger      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithSessionOptions configures the journey manager created by the server.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// NewServer creates a Server. Journey state changes are broadcast to SSE subscribers.
func NewServer(engine *wikisophy.Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	sessionOpts := append([]session.Option{
		session.WithLogger(s.logger),
		session.WithListener(s.broadcast),
	}, s.sessionOpts...)
	s.Journeys = session.NewManager(engine, sessionOpts...)
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *wikisophy.Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.SearchArticles)
		r.Get("/random", s.RandomArticle)
		r.Get("/preview", s.GetPreview)
		r.Post("/step", s.ResolveStep)

		r.Route("/journeys", func(r chi.Router) {
			r.Get("/", s.ListJourneys)
			r.Post("/", s.CreateJourney)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetJourney)
				r.Delete("/", s.DeleteJourney)
				r.Post("/start", s.StartJourney)
				r.Post("/step", s.StepJourney)
				r.Post("/cancel", s.CancelJourney)
				r.Post("/reset", s.ResetJourney)
				r.Get("/events", s.SubscribeJourney)
			})
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Wikisophy API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "wikisophy-http",
		"version":     strings.TrimSpace(wikisophy.Version),
		"api_version": apiVersion,
	})
}

// broadcast sends the diff between two journey snapshots to SSE subscribers.
func (s *Server) broadcast(journeyID string, prev, next domain.JourneyState) {
	diff := domain.Diff(journeyID, &prev, &next)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("Failed to encode journey diff", "journey_id", journeyID, "err", err)
		return
	}
	s.Streams.Broadcast(journeyID, string(data))
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}
