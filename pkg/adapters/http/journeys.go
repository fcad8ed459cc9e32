package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type createJourneyRequest struct {
	Title    string `json:"title"`
	Random   bool   `json:"random"`
	Target   string `json:"target"`
	MaxSteps int    `json:"max_steps"`
}

type journeyResponse struct {
	ID       string `json:"id"`
	Target   string `json:"target"`
	MaxSteps int    `json:"max_steps"`
	Pending  bool   `json:"pending"`
	domain.JourneyState
}

type journeyListResponse struct {
	Journeys []journeyResponse `json:"journeys"`
}

func newJourneyResponse(id string, j *wikisophy.Journey) journeyResponse {
	return journeyResponse{
		ID:           id,
		Target:       j.Target(),
		MaxSteps:     j.MaxSteps(),
		Pending:      j.Pending(),
		JourneyState: j.State(),
	}
}

func (b createJourneyRequest) options() ([]wikisophy.JourneyOption, error) {
	if b.MaxSteps < 0 {
		return nil, fmt.Errorf("max_steps must be positive")
	}
	return []wikisophy.JourneyOption{
		wikisophy.WithJourneyTarget(strings.TrimSpace(b.Target)),
		wikisophy.WithJourneyMaxSteps(b.MaxSteps),
	}, nil
}

// ListJourneys handles the GET /api/journeys request.
func (s *Server) ListJourneys(w http.ResponseWriter, r *http.Request) {
	infos := s.Journeys.List()
	resp := journeyListResponse{Journeys: make([]journeyResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Journeys = append(resp.Journeys, newJourneyResponse(info.ID, info.Journey))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// CreateJourney handles the POST /api/journeys request.
func (s *Server) CreateJourney(w http.ResponseWriter, r *http.Request) {
	var body createJourneyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("CreateJourney: Invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	opts, err := body.options()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		id string
		j  *wikisophy.Journey
	)
	switch {
	case body.Random:
		id, j, err = s.Journeys.CreateRandom(r.Context(), opts...)
	case strings.TrimSpace(body.Title) != "":
		id, j, err = s.Journeys.Create(r.Context(), body.Title, opts...)
	default:
		s.writeError(w, http.StatusBadRequest, "Title or random is required")
		return
	}
	if err != nil {
		s.writeStartError(w, err)
		return
	}

	s.logger.Info("Journey created", "journey_id", id, "title", body.Title, "random", body.Random)
	w.Header().Set("Location", "/api/journeys/"+id)
	s.writeJSON(w, http.StatusCreated, newJourneyResponse(id, j))
}

// GetJourney handles the GET /api/journeys/{id} request.
func (s *Server) GetJourney(w http.ResponseWriter, r *http.Request) {
	id, j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, newJourneyResponse(id, j))
}

// DeleteJourney handles the DELETE /api/journeys/{id} request.
func (s *Server) DeleteJourney(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Journeys.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusNotFound, "Journey not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartJourney handles the POST /api/journeys/{id}/start request on an idle journey.
func (s *Server) StartJourney(w http.ResponseWriter, r *http.Request) {
	id, j, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body createJourneyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := body.Title
	if body.Random {
		picked, err := s.Engine.RandomTitle(r.Context())
		if err != nil {
			s.writeStartError(w, err)
			return
		}
		title = picked
	}
	if strings.TrimSpace(title) == "" {
		s.writeError(w, http.StatusBadRequest, "Title or random is required")
		return
	}

	start, err := s.Engine.Article(r.Context(), title)
	if err != nil {
		s.writeStartError(w, err)
		return
	}
	if _, err := j.Start(r.Context(), start); err != nil {
		s.writeTransitionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newJourneyResponse(id, j))
}

// StepJourney handles the POST /api/journeys/{id}/step request.
// The step outlives a disconnected client; only Cancel or Reset discard it.
func (s *Server) StepJourney(w http.ResponseWriter, r *http.Request) {
	id, j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if _, err := j.Step(context.WithoutCancel(r.Context())); err != nil {
		s.writeTransitionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newJourneyResponse(id, j))
}

// CancelJourney handles the POST /api/journeys/{id}/cancel request.
func (s *Server) CancelJourney(w http.ResponseWriter, r *http.Request) {
	id, j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := j.Cancel(r.Context()); err != nil {
		s.writeTransitionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newJourneyResponse(id, j))
}

// ResetJourney handles the POST /api/journeys/{id}/reset request.
func (s *Server) ResetJourney(w http.ResponseWriter, r *http.Request) {
	id, j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	j.Reset()
	s.writeJSON(w, http.StatusOK, newJourneyResponse(id, j))
}

// SubscribeJourney handles the GET /api/journeys/{id}/events request (SSE).
// The first event carries the full state; later events carry diffs.
func (s *Server) SubscribeJourney(w http.ResponseWriter, r *http.Request) {
	id, j, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var watch *string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid format for parameter watch")
		return
	}
	var watchList []string
	if watch != nil && *watch != "" {
		for _, field := range strings.Split(*watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		s.logger.Error("SubscribeJourney: Streaming not supported")
		return
	}

	ch, unsubscribe := s.Streams.Subscribe(id)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	state := j.State()
	if initial, err := json.Marshal(domain.Diff(id, nil, &state)); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", initial)
	}
	flusher.Flush()
	s.logger.Info("SSE: Subscribing to journey updates", "journey_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "journey_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watches reports whether the diff in msg touches any of the watched fields.
func watches(msg string, fields []string) bool {
	var diff domain.JourneyDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch field {
		case "status":
			if diff.Status != nil || diff.Outcome != nil {
				return true
			}
		case "path":
			if len(diff.Appended) > 0 || diff.Reset {
				return true
			}
		}
	}
	return false
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *wikisophy.Journey, bool) {
	id := chi.URLParam(r, "id")
	j, err := s.Journeys.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Journey not found")
		return "", nil, false
	}
	return id, j, true
}

func (s *Server) writeStartError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Article not found")
		return
	}
	s.logger.Error("Failed to start journey", "err", err)
	s.writeError(w, http.StatusInternalServerError, "Failed to start journey")
}

func (s *Server) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStepPending),
		errors.Is(err, domain.ErrNotRunning),
		errors.Is(err, domain.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("Journey transition failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
