package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/oapi-codegen/runtime"
)

// MaxSearchLimit caps the limit accepted by /api/search.
const MaxSearchLimit = 50

type searchResponse struct {
	Results []domain.SearchResult `json:"results"`
}

type randomResponse struct {
	Title *string `json:"title"`
}

type stepRequest struct {
	Title string `json:"title"`
}

// SearchArticles handles the GET /api/search request.
func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &query); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid format for parameter q")
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid format for parameter limit")
		return
	}

	if strings.TrimSpace(query) == "" {
		s.writeJSON(w, http.StatusOK, searchResponse{Results: []domain.SearchResult{}})
		return
	}

	n := domain.DefaultSearchLimit
	if limit != nil {
		if *limit < 1 || *limit > MaxSearchLimit {
			s.writeError(w, http.StatusBadRequest, "Limit must be between 1 and 50")
			return
		}
		n = *limit
	}

	results, err := s.Engine.Search(r.Context(), query, n)
	if err != nil {
		s.logger.Error("Search failed", "query", query, "err", err)
		s.writeError(w, http.StatusInternalServerError, "Search request failed")
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	s.writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// RandomArticle handles the GET /api/random request.
func (s *Server) RandomArticle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	title, err := s.Engine.RandomTitle(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeJSON(w, http.StatusOK, randomResponse{})
			return
		}
		s.logger.Error("Random article fetch failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch random article")
		return
	}
	s.writeJSON(w, http.StatusOK, randomResponse{Title: &title})
}

// GetPreview handles the GET /api/preview request.
func (s *Server) GetPreview(w http.ResponseWriter, r *http.Request) {
	var title string
	if err := runtime.BindQueryParameter("form", true, false, "title", r.URL.Query(), &title); err != nil || strings.TrimSpace(title) == "" {
		s.writeError(w, http.StatusBadRequest, "Title parameter is required")
		return
	}

	preview, err := s.Engine.Preview(r.Context(), title)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		s.logger.Error("Preview fetch failed", "title", title, "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch article preview")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.writeJSON(w, http.StatusOK, preview)
}

// ResolveStep handles the POST /api/step request.
func (s *Server) ResolveStep(w http.ResponseWriter, r *http.Request) {
	var body stepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("ResolveStep: Invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	result := s.Engine.ResolveStep(r.Context(), body.Title)
	if failed, ok := result.(domain.FetchFailed); ok {
		s.logger.Warn("ResolveStep: markup fetch failed", "title", body.Title, "err", failed.Err)
	}
	s.writeJSON(w, http.StatusOK, domain.NewStepResponse(result))
}
