package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/story-map-service/internal/adapter/backend"
	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/mapstate"
)

const maxBodyBytes = 10 << 20

const (
	msgBackendUnavailable = "story backend unavailable, please try again"
	msgSummaryUnavailable = "summary service unavailable, please try again"
)

// searchBody is the /v1/search request. Dates accept RFC 3339 or YYYY-MM-DD.
type searchBody struct {
	UserID  int      `json:"user_id"`
	Term    string   `json:"term"`
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	From    string   `json:"from"`
	To      string   `json:"to"`
}

// projectionResponse reports a projection and whether it became the current map state.
type projectionResponse struct {
	Markers domain.MarkerSet `json:"markers"`
	Applied bool             `json:"applied"`
	Ticket  mapstate.Ticket  `json:"ticket"`
}

type summaryBody struct {
	// Scope is "search" (every story of the current result, the default),
	// "visible" (only stories placed on the map) or "all" (every story the
	// backend holds). Scoped requests send producer ids, so stories without
	// one cannot be summarised.
	Scope string `json:"scope"`
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	batch, err := domain.ParseBatch(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Projector.Project(r.Context(), batch))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := body.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.searchAndCommit(w, r, params)
}

func (s *Server) handleTagSearch(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(strings.TrimPrefix(r.PathValue("tag"), "#"))
	if tag == "" {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}
	s.searchAndCommit(w, r, backend.SearchParams{Term: tag})
}

// searchAndCommit fetches, projects and commits under one ticket. A failed
// fetch answers 502 and leaves the current map state as it was.
func (s *Server) searchAndCommit(w http.ResponseWriter, r *http.Request, params backend.SearchParams) {
	ticket := s.deps.State.Begin()

	batch, err := s.deps.Searcher.Search(r.Context(), params)
	if err != nil {
		s.logger.Warn("search failed", "term", params.Term, "ticket", ticket, "error", err)
		writeError(w, http.StatusBadGateway, msgBackendUnavailable)
		return
	}

	set := s.deps.Projector.Project(r.Context(), batch)
	applied := s.deps.State.Commit(ticket, set)
	writeJSON(w, http.StatusOK, projectionResponse{Markers: set, Applied: applied, Ticket: ticket})
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r.URL.Query().Get("from"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from: "+err.Error())
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to: "+err.Error())
		return
	}

	snap := s.deps.State.Snapshot()
	snap.Markers = snap.Markers.WithinTimeRange(from, to)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var body summaryBody
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	current := s.deps.State.Snapshot().Markers
	var ids []any
	switch body.Scope {
	case "", "search":
		ids = current.SourceIDs
		if len(ids) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "search results do not include story identifiers")
			return
		}
	case "visible":
		ids = domain.SourceIDsOf(current.Stories)
		if len(ids) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "visible stories do not include identifiers")
			return
		}
	case "all":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scope %q", body.Scope))
		return
	}

	resp, err := s.deps.Summarizer.Summarize(r.Context(), ids)
	if err != nil {
		s.logger.Warn("summary failed", "stories", len(ids), "error", err)
		writeError(w, http.StatusBadGateway, msgSummaryUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b searchBody) params() (backend.SearchParams, error) {
	from, err := parseDateParam(b.From, false)
	if err != nil {
		return backend.SearchParams{}, fmt.Errorf("invalid from: %w", err)
	}
	to, err := parseDateParam(b.To, true)
	if err != nil {
		return backend.SearchParams{}, fmt.Errorf("invalid to: %w", err)
	}
	if from != nil && to != nil && from.After(*to) {
		return backend.SearchParams{}, errors.New("from is after to")
	}
	return backend.SearchParams{
		UserID:  b.UserID,
		Term:    b.Term,
		City:    b.City,
		Country: b.Country,
		Lat:     b.Lat,
		Lon:     b.Lon,
		From:    from,
		To:      to,
	}, nil
}

// parseDateParam accepts RFC 3339 or a bare date. A bare upper bound covers
// its whole day.
func parseDateParam(v string, upper bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("%q is not a date", v)
	}
	if upper {
		t = backend.EndOfDay(t)
	}
	return &t, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
