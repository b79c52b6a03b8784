package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"slices"
	"sync"
	"time"
)

// Project turns one story batch into a MarkerSet: deduplicate, normalise,
// drop coordinate-invalid stories, and collect viewport bounds.
func Project(batch []RawStory) MarkerSet {
	return projectWithFingerprint(batch, Fingerprint(batch))
}

func projectWithFingerprint(batch []RawStory, fingerprint string) MarkerSet {
	kept, ids := DedupeWithIdentities(batch)

	set := MarkerSet{
		Stories:     make([]NormalizedStory, 0, len(kept)),
		Bounds:      make([]LatLon, 0, len(kept)),
		StoryIDs:    ids,
		SourceIDs:   make([]any, 0, len(kept)),
		Total:       len(kept),
		Fingerprint: fingerprint,
		ProjectedAt: clock.Now(),
	}

	for i, raw := range kept {
		story := Normalize(raw, ids[i])
		set.SourceIDs = appendSourceID(set.SourceIDs, story.SourceID)
		if !story.HasCoordinates {
			set.Excluded++
			continue
		}
		set.Stories = append(set.Stories, story)
		set.Bounds = append(set.Bounds, LatLon{story.Lat, story.Lon})
	}
	set.Box = boundingBox(set.Bounds)
	return set
}

// SourceIDsOf returns the distinct producer ids of stories, in order.
func SourceIDsOf(stories []NormalizedStory) []any {
	var out []any
	for _, s := range stories {
		out = appendSourceID(out, s.SourceID)
	}
	return out
}

// appendSourceID adds id unless it is nil or already present. Ids compare by
// their decoded value, so the number 7 and the string "7" stay distinct.
func appendSourceID(ids []any, id any) []any {
	if id == nil || slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// Fingerprint hashes the batch content. encoding/json sorts map keys, so two
// batches with equal content hash equally regardless of key order.
func Fingerprint(batch []RawStory) string {
	data, err := json.Marshal(batch)
	if err != nil {
		// Unmarshalable values (NaN, channels) cannot come from JSON input;
		// an empty fingerprint forces recomputation.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func boundingBox(bounds []LatLon) *BoundingBox {
	if len(bounds) == 0 {
		return nil
	}
	box := BoundingBox{South: math.Inf(1), West: math.Inf(1), North: math.Inf(-1), East: math.Inf(-1)}
	for _, b := range bounds {
		box.South = math.Min(box.South, b[0])
		box.North = math.Max(box.North, b[0])
		box.West = math.Min(box.West, b[1])
		box.East = math.Max(box.East, b[1])
	}
	return &box
}

// Projector memoises Project on the batch fingerprint, so re-rendering an
// unchanged result set does not recompute it. Safe for concurrent use.
type Projector struct {
	mu   sync.Mutex
	last MarkerSet
	have bool
}

// NewProjector creates an empty Projector.
func NewProjector() *Projector {
	return &Projector{}
}

// Project returns the MarkerSet for batch and whether it was recomputed.
func (p *Projector) Project(batch []RawStory) (MarkerSet, bool) {
	fp := Fingerprint(batch)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.have && fp != "" && fp == p.last.Fingerprint {
		return p.last, false
	}
	p.last = projectWithFingerprint(batch, fp)
	p.have = true
	return p.last, true
}

// WithinTimeRange returns a copy of the set keeping only stories published
// inside [from, to], with bounds recomputed for what is left. Stories
// without a parsed publication time never match a bounded range. The summary
// scope and counts are those of the full projection.
func (m MarkerSet) WithinTimeRange(from, to *time.Time) MarkerSet {
	if from == nil && to == nil {
		return m
	}
	m.Stories = FilterByTimeRange(m.Stories, from, to)
	m.Bounds = make([]LatLon, len(m.Stories))
	for i, s := range m.Stories {
		m.Bounds[i] = LatLon{s.Lat, s.Lon}
	}
	m.Box = boundingBox(m.Bounds)
	return m
}
