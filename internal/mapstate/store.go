// Package mapstate holds the MarkerSet the map is currently showing.
//
// Projections are produced concurrently (HTTP searches, the Kafka pipeline),
// but an older one may never replace a newer one. A caller takes a Ticket
// before it starts fetching or projecting and commits with it afterwards; a
// commit whose ticket is older than the current one is discarded whole.
// Nothing is merged: a committed MarkerSet replaces the previous one.
package mapstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/observability"
)

// Ticket orders projections. Higher tickets were issued later.
type Ticket uint64

// Snapshot is the current map state.
type Snapshot struct {
	Markers  domain.MarkerSet `json:"markers"`
	Viewport ViewportState    `json:"viewport"`
	Ticket   Ticket           `json:"ticket"`
}

// Store keeps the current MarkerSet with last-write-wins semantics.
type Store struct {
	mu       sync.Mutex
	issued   Ticket
	applied  Ticket
	current  domain.MarkerSet
	viewport Viewport
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{logger: logger, metrics: metrics}
}

// Begin issues a ticket for a projection about to start.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit makes set current unless a projection with a later ticket is
// already current. It returns false when the projection is stale and was
// dropped. A failed fetch simply never commits, which leaves the previous
// MarkerSet in place. Committing unchanged bounds keeps the viewport still.
func (s *Store) Commit(t Ticket, set domain.MarkerSet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t <= s.applied {
		s.metrics.ProjectionsDiscarded.Inc()
		s.logger.Debug("discarding stale projection",
			"ticket", t,
			"current", s.applied,
			"fingerprint", set.Fingerprint,
		)
		return false
	}

	s.applied = t
	s.current = set
	s.metrics.MarkersCurrent.Set(float64(len(set.Stories)))
	if s.viewport.Fit(set.Bounds) {
		s.metrics.ViewportRefits.Inc()
	}
	return true
}

// Current returns the committed MarkerSet.
func (s *Store) Current() domain.MarkerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Snapshot returns the committed MarkerSet with its viewport.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Markers: s.current, Viewport: s.viewport.State(), Ticket: s.applied}
}

// LoadBatch commits each set in order, so the last one wins. It implements
// pipeline.BatchLoader.
func (s *Store) LoadBatch(_ context.Context, sets []domain.MarkerSet) error {
	for _, set := range sets {
		s.Commit(s.Begin(), set)
	}
	return nil
}
