package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// GeoKeyPrecision is the number of decimals kept when coordinates feed the
// geo fallback key. It absorbs float jitter between producers.
// TODO: calibrate against producer data once a week of replayed batches is available.
const GeoKeyPrecision = 5

// Identity key prefixes. Explicit ids carry their own prefix so an id whose
// text happens to start with "geo:" cannot collide with a synthesized key.
const (
	prefixExplicit  = "id:"
	prefixReference = "ref:"
	prefixGeo       = "geo:"
	prefixTitle     = "title:"
	prefixIndex     = "index:"
)

var (
	idKeys        = []string{"id", "story_id", "storyId", "news_id", "document_id", "uuid", "_id"}
	referenceKeys = []string{"external_id", "externalId", "reference_id", "url", "source_url", "article_url", "link", "sourceUrl", "permalink"}

	// identityTextKeys feed the geo and title keys. Unlike the display title
	// the text is never truncated, so long messages sharing a prefix stay apart.
	identityTextKeys = []string{"title", "subject", "headline", "message", "description"}
)

var folder = cases.Fold()

// ResolveIdentity derives the deduplication key for a story. position is the
// record's ordinal in its batch and only matters when every other strategy
// comes up empty. It never fails.
func ResolveIdentity(raw RawStory, position int) StoryIdentity {
	if id, ok := explicitID(raw); ok {
		return StoryIdentity(prefixExplicit + id)
	}

	if ref := firstText(raw, referenceKeys); ref != "" {
		return StoryIdentity(prefixReference + strings.ToLower(ref))
	}

	text := resolveText(raw, identityTextKeys)
	if lat, lon, ok := resolveCoordinates(raw); ok {
		key := fmt.Sprintf("%.*f:%.*f:%s:%s",
			GeoKeyPrecision, lat, GeoKeyPrecision, lon, text, rawTimestamp(raw))
		return StoryIdentity(prefixGeo + strings.ToLower(key))
	}

	if text == "" {
		text = resolveText(raw, descriptionKeys)
	}
	if text != "" {
		return StoryIdentity(prefixTitle + strings.ToLower(text))
	}

	return StoryIdentity(fmt.Sprintf("%s%d", prefixIndex, position))
}

// explicitID returns the folded string form of the first non-blank id field.
// Blank strings count as absent so that producers sending id:"" do not all
// collapse into one story.
func explicitID(raw RawStory) (string, bool) {
	_, s, ok := firstIDField(raw)
	if !ok {
		return "", false
	}
	return foldKey(s), true
}

// SourceID returns the producer's own id for raw, the value explicitID is
// derived from: json.Number or a number for numeric ids, a trimmed string
// otherwise. Backends look stories up by this value, never by StoryIdentity.
// Composite ids report false.
func SourceID(raw RawStory) (any, bool) {
	v, s, ok := firstIDField(raw)
	if !ok {
		return nil, false
	}
	switch v.(type) {
	case string:
		return s, true
	case map[string]any, []any:
		return nil, false
	default:
		return v, true
	}
}

func firstIDField(raw RawStory) (v any, trimmed string, ok bool) {
	for _, k := range idKeys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(stringForm(v)); s != "" {
			return v, s, true
		}
	}
	return nil, "", false
}

// foldKey applies Unicode case folding over the NFC form so visually equal ids
// compare equal.
func foldKey(s string) string {
	return folder.String(norm.NFC.String(s))
}

// IsPositional reports whether the identity came from the batch-position
// fallback and so says nothing about the story itself.
func (id StoryIdentity) IsPositional() bool {
	return strings.HasPrefix(string(id), prefixIndex)
}
