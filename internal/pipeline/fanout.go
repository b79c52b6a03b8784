package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

// FanOut loads every batch into all of its loaders concurrently, e.g. the
// Kafka sink and the in-memory map state. It fails if any loader fails.
type FanOut []BatchLoader

func (f FanOut) LoadBatch(ctx context.Context, sets []domain.MarkerSet) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range f {
		g.Go(func() error {
			return l.LoadBatch(ctx, sets)
		})
	}
	return g.Wait()
}
