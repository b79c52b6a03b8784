package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func newCached(t *testing.T, inner domain.Geocoder, size int) *CachedGeocoder {
	t.Helper()
	cached, err := NewCachedGeocoder(inner, size, testMetrics())
	require.NoError(t, err)
	return cached
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{City: "Austin", Country: "United States"},
	}
	cached := newCached(t, inner, 10)

	r1, err := cached.ReverseGeocode(context.Background(), 30.2672, -97.7431)
	require.NoError(t, err)
	assert.Equal(t, "Austin", r1.City)

	r2, err := cached.ReverseGeocode(context.Background(), 30.2672, -97.7431)
	require.NoError(t, err)
	assert.Equal(t, "Austin", r2.City)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, float64(1), testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{City: "Place"},
	}
	cached := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 30, -97)
	_, _ = cached.ReverseGeocode(context.Background(), 32, -96)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 0, 0)
	_, _ = cached.ReverseGeocode(context.Background(), 0, 0)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.Len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := newCached(t, inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, 0, cached.Len())
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{Country: "X"}}
	cached := newCached(t, inner, 2)

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	_, _ = cached.ReverseGeocode(context.Background(), 2, 2)
	_, _ = cached.ReverseGeocode(context.Background(), 3, 3) // evicts 1,1
	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)

	assert.Equal(t, 4, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestNewCachedGeocoder_InvalidSize(t *testing.T) {
	_, err := NewCachedGeocoder(&countingGeocoder{}, 0, testMetrics())
	require.Error(t, err)
}
