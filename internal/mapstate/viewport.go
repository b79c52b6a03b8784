package mapstate

import (
	"slices"
	"sync"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

// Viewport tracks the bounds the map was last fitted to. Fitting the same
// bounds again is a no-op, so an unchanged result set never re-triggers the
// map's fly-to animation.
type Viewport struct {
	mu     sync.Mutex
	bounds []domain.LatLon
	fitted bool
	refits int
}

// ViewportState is a read-only snapshot of the viewport.
type ViewportState struct {
	Bounds []domain.LatLon `json:"bounds"`
	Refits int             `json:"refits"`
}

// Fit records bounds and reports whether the map has to be refitted.
// Empty bounds never refit; the map keeps its current view.
func (v *Viewport) Fit(bounds []domain.LatLon) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(bounds) == 0 {
		return false
	}
	if v.fitted && slices.Equal(v.bounds, bounds) {
		return false
	}
	v.bounds = slices.Clone(bounds)
	v.fitted = true
	v.refits++
	return true
}

// State returns a copy of the current viewport.
func (v *Viewport) State() ViewportState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewportState{Bounds: slices.Clone(v.bounds), Refits: v.refits}
}
