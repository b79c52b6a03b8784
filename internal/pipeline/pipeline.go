package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw story batch messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer projects one story batch message into a MarkerSet.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.MarkerSet, error)
}

// BatchLoader hands projected marker sets to their destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, sets []domain.MarkerSet) error
}

const (
	minRetryDelay = 200 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// Pipeline consumes story batch messages, projects each into a MarkerSet and
// loads the results. Offsets are committed only after a successful load, so a
// crash replays the batch; replaying is harmless because projection is pure
// and the map store keeps only the newest set.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness reports ready once the first marker set has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no story batch projected yet")
	}
	return nil
}

// Run loops until ctx is cancelled. Extract and load failures are retried
// with exponential backoff; cancellation is not an error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	r := retry{delay: minRetryDelay}
	for ctx.Err() == nil {
		if err := p.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("pipeline cycle failed", "error", err, "retry_in", r.delay)
			if !r.wait(ctx) {
				break
			}
			continue
		}
		r.reset()
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// cycle runs one extract-project-load round.
func (p *Pipeline) cycle(ctx context.Context) error {
	start := time.Now()

	messages, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	p.metrics.MessagesConsumed.Add(float64(len(messages)))
	p.metrics.BatchSize.Observe(float64(len(messages)))

	sets, projected := p.project(ctx, messages)
	if len(sets) == 0 {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, sets); err != nil {
		return err
	}
	p.metrics.MessagesProduced.Add(float64(len(sets)))
	for _, m := range projected {
		p.commit(ctx, m)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Debug("story batches projected",
		"messages", len(messages),
		"marker_sets", len(sets),
		"skipped", len(messages)-len(sets),
		"markers", len(sets[len(sets)-1].Stories),
	)
	return nil
}

// project transforms each message. Undecodable messages are committed and
// skipped right away so one poison message cannot stall the partition.
func (p *Pipeline) project(ctx context.Context, messages []domain.RawEvent) ([]domain.MarkerSet, []domain.RawEvent) {
	sets := make([]domain.MarkerSet, 0, len(messages))
	projected := make([]domain.RawEvent, 0, len(messages))

	for _, m := range messages {
		set, err := p.transformer.Transform(ctx, m)
		if err != nil {
			p.logger.Warn("undecodable story batch, skipping",
				"error", err,
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, m)
			continue
		}
		sets = append(sets, set)
		projected = append(projected, m)
	}
	return sets, projected
}

func (p *Pipeline) commit(ctx context.Context, m domain.RawEvent) {
	if m.Commit == nil {
		return
	}
	if err := m.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", m.Topic, "partition", m.Partition, "offset", m.Offset)
	}
}

// retry is a doubling delay capped at maxRetryDelay.
type retry struct {
	delay time.Duration
}

func (r *retry) reset() { r.delay = minRetryDelay }

// wait sleeps for the current delay and doubles it. It returns false if ctx
// ended first.
func (r *retry) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	r.advance()
	return true
}

func (r *retry) advance() { r.delay = min(r.delay*2, maxRetryDelay) }
