package domain

import (
	"context"
	"time"
)

// RawStory is a story record exactly as a producer sent it. Keys and value
// shapes vary by producer; a nil RawStory stands for a JSON null entry.
type RawStory map[string]any

// StoryIdentity is the deduplication key for a story. See ResolveIdentity.
type StoryIdentity string

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// MediaKind classifies an attachment URL.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaFile  MediaKind = "file" // neither image nor video; offered as a download
)

// Attachment is one entry of a story's combined file list.
type Attachment struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// NormalizedStory is the canonical, render-ready view of a RawStory.
// Values are never mutated after Normalize returns them.
type NormalizedStory struct {
	ID             StoryIdentity `json:"id"`
	SourceID       any           `json:"source_id,omitempty"` // producer's id value, nil when absent
	Lat            float64       `json:"lat"`
	Lon            float64       `json:"lon"`
	HasCoordinates bool          `json:"has_coordinates"`
	Title          string        `json:"title"`
	City           string        `json:"city"`
	Country        string        `json:"country"`
	Description    string        `json:"description"`
	Source         string        `json:"source,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
	ImageLinks     []string      `json:"image_links,omitempty"`
	VideoLinks     []string      `json:"video_links,omitempty"`
	Attachments    []Attachment  `json:"attachments,omitempty"`

	// Time is for display only. PublishedAt is nil when no timestamp parsed.
	Time        string     `json:"time"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Enrichment fields, filled by EnrichWithGeocoding.
	PlaceName string `json:"place_name,omitempty"`
	GeoSource string `json:"geo_source,omitempty"` // "reverse", "original", "failed"
}

// LatLon is a [lat, lon] pair as map libraries expect for fitBounds.
type LatLon [2]float64

// BoundingBox is the south-west / north-east corners covering a MarkerSet.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// MarkerSet is the renderable projection of one story batch.
type MarkerSet struct {
	Stories []NormalizedStory `json:"stories"`
	Bounds  []LatLon          `json:"bounds"`
	Box     *BoundingBox      `json:"box,omitempty"`

	// StoryIDs covers every deduplicated story, including the ones excluded
	// from the map. SourceIDs are the distinct producer ids among them, in
	// order; summary requests are scoped by those.
	StoryIDs  []StoryIdentity `json:"story_ids"`
	SourceIDs []any           `json:"source_ids"`
	Total     int             `json:"total"`
	Excluded  int             `json:"excluded"`

	Fingerprint string    `json:"fingerprint"`
	ProjectedAt time.Time `json:"projected_at"`
}

// Empty reports whether the set has nothing to render.
func (m MarkerSet) Empty() bool {
	return len(m.Stories) == 0
}
