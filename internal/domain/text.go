package domain

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Display sentinels for text fields that no candidate key could fill.
const (
	NoTitle        = "No Title Available"
	NoDescription  = "No description available"
	UnknownCity    = "Unknown City"
	UnknownCountry = "Unknown Country"
)

// titleFromMessageLimit caps a title derived from the message body.
const titleFromMessageLimit = 80

var (
	titleKeys       = []string{"title", "subject", "headline"}
	messageKeys     = []string{"message"}
	descriptionKeys = []string{"description", "message", "summary", "content"}
	cityKeys        = []string{"city", "matched_city", "city_name", "location"}
	countryKeys     = []string{"country", "city_result", "country_name"}
	sourceKeys      = []string{"source", "producer"}
	tagKeys         = []string{"tags", "tag_list", "keywords"}
)

// stripPolicy removes every tag; story text is rendered as plain text.
var stripPolicy = bluemonday.StrictPolicy()

// resolveText returns the first candidate whose cleaned text is non-empty.
func resolveText(raw RawStory, keys []string) string {
	for _, k := range keys {
		s, ok := scalarString(raw[k])
		if !ok {
			continue
		}
		if s = cleanText(s); s != "" {
			return s
		}
	}
	return ""
}

// cleanText strips markup and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(stripPolicy.Sanitize(s))
	}
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit]))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// resolveTitle is the display title: title keys, else the message cut to
// titleFromMessageLimit runes, else the sentinel.
func resolveTitle(raw RawStory) string {
	if t := resolveText(raw, titleKeys); t != "" {
		return t
	}
	return orDefault(truncateRunes(resolveText(raw, messageKeys), titleFromMessageLimit), NoTitle)
}

// resolveTags decodes tag lists, which arrive in the same shapes as media
// links plus comma-separated text. Leading '#' is dropped and duplicates are
// removed case-insensitively, keeping the first spelling.
func resolveTags(raw RawStory) []string {
	v, ok := firstPresent(raw, tagKeys)
	if !ok {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, t := range decodeList(v, "|,") {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
