package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGazaMessage = "Breaking news from Gaza"

func TestProject_Pipeline(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	batch := []RawStory{
		{"id": 1, "lat": 31.5, "lon": 34.5, "message": testGazaMessage},
		{"id": 1, "lat": 31.5, "lon": 34.5, "message": testGazaMessage},
		nil,
		{"id": 2, "lat": "31.2", "lon": "34.3", "title": "Rafah"},
		{"id": 3, "lat": nil, "lon": nil, "title": "No coordinates"},
		{"views": 12},
	}

	set := Project(batch)

	assert.Equal(t, 4, set.Total)
	assert.Equal(t, 2, set.Excluded)
	require.Len(t, set.Stories, 2)
	assert.Equal(t, StoryIdentity("id:1"), set.Stories[0].ID)
	assert.Equal(t, testGazaMessage, set.Stories[0].Title)
	assert.Equal(t, 31.2, set.Stories[1].Lat)

	assert.Equal(t, []LatLon{{31.5, 34.5}, {31.2, 34.3}}, set.Bounds)
	assert.Equal(t, []StoryIdentity{"id:1", "id:2", "id:3", "index:5"}, set.StoryIDs)
	assert.Equal(t, []any{1, 2, 3}, set.SourceIDs)
	assert.Equal(t, 1, set.Stories[0].SourceID)
	assert.Equal(t, fixed, set.ProjectedAt)
	assert.NotEmpty(t, set.Fingerprint)

	want := &BoundingBox{South: 31.2, West: 34.3, North: 31.5, East: 34.5}
	if diff := cmp.Diff(want, set.Box); diff != "" {
		t.Errorf("bounding box mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_ZeroCoordinatesSurviveJSON(t *testing.T) {
	set := Project([]RawStory{{"id": 1, "lat": 0.0, "lon": 0.0, "title": "Null Island"}})
	require.Len(t, set.Stories, 1)

	data, err := json.Marshal(set.Stories[0])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "lat")
	assert.Contains(t, fields, "lon")
	assert.Equal(t, 0.0, fields["lat"])
	assert.Equal(t, true, fields["has_coordinates"])
}

func TestProject_SourceIDs(t *testing.T) {
	batch, err := ParseBatch([]byte(`[
		{"id": 42, "lat": 1, "lon": 1},
		{"views": 1},
		{"story_id": "abc", "lat": null},
		{"url": "https://x.test/a", "lat": 2, "lon": 2},
		{"id": "x-7"}
	]`))
	require.NoError(t, err)

	set := Project(batch)

	assert.Equal(t, []any{json.Number("42"), "abc", "x-7"}, set.SourceIDs)
	assert.Equal(t, []any{json.Number("42")}, SourceIDsOf(set.Stories))
	assert.Nil(t, SourceIDsOf(nil))
}

func TestProject_CoordinateInvalidNeverMapped(t *testing.T) {
	batch := []RawStory{
		{"id": 9, "lat": nil, "lon": nil, "title": "Valid title", "city": "Gaza", "image_links": "a.jpg"},
	}

	set := Project(batch)

	assert.True(t, set.Empty())
	assert.Empty(t, set.Bounds)
	assert.Nil(t, set.Box)
	assert.Equal(t, 1, set.Total)
	assert.Equal(t, 1, set.Excluded)
	assert.Equal(t, []StoryIdentity{"id:9"}, set.StoryIDs)
}

func TestProject_PositionalStoryCountedButNotMapped(t *testing.T) {
	set := Project([]RawStory{{"tags": "misc"}})

	assert.Equal(t, 1, set.Total)
	assert.Empty(t, set.Stories)
	require.Len(t, set.StoryIDs, 1)
	assert.True(t, set.StoryIDs[0].IsPositional())
}

func TestProject_EmptyBatch(t *testing.T) {
	set := Project(nil)

	assert.True(t, set.Empty())
	assert.Equal(t, 0, set.Total)
	assert.NotNil(t, set.Stories)
	assert.NotNil(t, set.Bounds)
}

func TestFingerprint_IgnoresKeyOrderButSeesContent(t *testing.T) {
	a := []RawStory{{"id": 1, "lat": 1.0, "lon": 2.0}}
	b := []RawStory{{"lon": 2.0, "lat": 1.0, "id": 1}}
	c := []RawStory{{"id": 1, "lat": 1.5, "lon": 2.0}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestProjector_MemoisesUnchangedBatch(t *testing.T) {
	p := NewProjector()
	batch := []RawStory{{"id": 1, "lat": 1.0, "lon": 2.0}}

	first, recomputed := p.Project(batch)
	require.True(t, recomputed)

	again, recomputed := p.Project([]RawStory{{"lon": 2.0, "lat": 1.0, "id": 1}})
	assert.False(t, recomputed)
	assert.Equal(t, first, again)

	changed, recomputed := p.Project([]RawStory{{"id": 1, "lat": 1.0, "lon": 3.0}})
	assert.True(t, recomputed)
	assert.NotEqual(t, first.Fingerprint, changed.Fingerprint)
}

func TestMarkerSet_WithinTimeRange(t *testing.T) {
	set := Project([]RawStory{
		{"id": "a", "lat": 10, "lon": 20, "time": "2025-03-01T10:00:00Z"},
		{"id": "b", "lat": 11, "lon": 21, "time": "2025-03-05T10:00:00Z"},
		{"id": "c", "lat": 12, "lon": 22},
	})
	require.Len(t, set.Stories, 3)

	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	filtered := set.WithinTimeRange(&from, nil)

	require.Len(t, filtered.Stories, 1)
	assert.Equal(t, StoryIdentity("id:b"), filtered.Stories[0].ID)
	assert.Equal(t, []LatLon{{11, 21}}, filtered.Bounds)
	assert.Equal(t, &BoundingBox{South: 11, West: 21, North: 11, East: 21}, filtered.Box)
	assert.Len(t, filtered.StoryIDs, 3)
	assert.Len(t, set.Stories, 3, "original set untouched")

	assert.Equal(t, set, set.WithinTimeRange(nil, nil))
}
