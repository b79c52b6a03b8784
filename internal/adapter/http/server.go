package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/story-map-service/internal/adapter/backend"
	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/mapstate"
)

// Searcher fetches a raw story batch for a search.
type Searcher interface {
	Search(ctx context.Context, params backend.SearchParams) ([]domain.RawStory, error)
}

// Summarizer generates a summary for the stories with the given producer
// ids, or for every story when ids is empty.
type Summarizer interface {
	Summarize(ctx context.Context, ids []any) (backend.SummaryResponse, error)
}

// Projector turns a raw batch into a MarkerSet.
type Projector interface {
	Project(ctx context.Context, batch []domain.RawStory) domain.MarkerSet
}

// MapState holds the MarkerSet the map currently shows.
type MapState interface {
	Begin() mapstate.Ticket
	Commit(t mapstate.Ticket, set domain.MarkerSet) bool
	Snapshot() mapstate.Snapshot
}

// Deps are the collaborators the API routes need.
type Deps struct {
	Ready      sharedobs.ReadinessChecker
	State      MapState
	Searcher   Searcher
	Summarizer Summarizer
	Projector  Projector
}

// Server exposes health, readiness, metrics, and the story map API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /v1 story routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestID(logger, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/project", s.handleProject)
	mux.HandleFunc("POST /v1/search", s.handleSearch)
	mux.HandleFunc("POST /v1/search/tag/{tag}", s.handleTagSearch)
	mux.HandleFunc("GET /v1/markers", s.handleMarkers)
	mux.HandleFunc("POST /v1/summary", s.handleSummary)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// AlwaysReady is the readiness checker used when the Kafka pipeline is off.
type AlwaysReady struct{}

func (AlwaysReady) CheckReadiness(context.Context) error { return nil }
