package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/observability"
)

// StoryTransformer implements Transformer: it decodes a story batch, projects
// it into a MarkerSet and optionally fills unknown places by reverse geocoding.
type StoryTransformer struct {
	projector *domain.Projector
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex
	enriched domain.MarkerSet // last enriched set, reused while the projection is memoised
}

// NewTransformer creates a StoryTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *StoryTransformer {
	return &StoryTransformer{
		projector: domain.NewProjector(),
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *StoryTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.MarkerSet, error) {
	batch, err := domain.ParseBatch(raw.Value)
	if err != nil {
		return domain.MarkerSet{}, fmt.Errorf("offset %d: %w", raw.Offset, err)
	}
	return t.Project(ctx, batch), nil
}

// Project projects an already decoded batch. The HTTP search path uses it
// directly so both entry points share one memo and one set of metrics.
func (t *StoryTransformer) Project(ctx context.Context, batch []domain.RawStory) domain.MarkerSet {
	set, recomputed := t.projector.Project(batch)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !recomputed && t.enriched.Fingerprint == set.Fingerprint {
		t.metrics.ProjectionCacheResults.WithLabelValues("hit").Inc()
		return t.enriched
	}
	t.metrics.ProjectionCacheResults.WithLabelValues("miss").Inc()

	nulls := countNil(batch)
	t.metrics.StoriesReceived.Add(float64(len(batch)))
	t.metrics.NullEntriesDropped.Add(float64(nulls))
	t.metrics.DuplicatesDropped.Add(float64(len(batch) - nulls - set.Total))
	t.metrics.CoordinateInvalid.Add(float64(set.Excluded))
	if set.Excluded > 0 {
		t.logger.Debug("stories without coordinates kept off the map",
			"excluded", set.Excluded,
			"total", set.Total,
			"fingerprint", set.Fingerprint,
		)
	}

	set = domain.EnrichWithGeocoding(ctx, set, t.geocoder, t.logger)
	t.enriched = set
	return set
}

func countNil(batch []domain.RawStory) int {
	n := 0
	for _, raw := range batch {
		if raw == nil {
			n++
		}
	}
	return n
}
