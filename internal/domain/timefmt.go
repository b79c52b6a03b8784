package domain

import (
	"strconv"
	"strings"
	"time"
)

// RecentSentinel is shown when no timestamp could be parsed. It is a display
// string only; filters look at PublishedAt.
const RecentSentinel = "Recent"

// DisplayLayout formats parsed timestamps for the map popup.
const DisplayLayout = "Jan 2, 2006 15:04 UTC"

var timeKeys = []string{
	"time", "published_at", "publishedAt", "published", "date",
	"created_at", "createdAt", "upload_date", "timestamp",
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Unix values below this are treated as noise (e.g. a bare year).
const minUnixSeconds = 100_000_000

// rawTimestamp is the first non-blank timestamp candidate as text.
func rawTimestamp(raw RawStory) string {
	return firstText(raw, timeKeys)
}

// resolveTime walks the timestamp candidates and returns the display string
// plus the parsed instant, or RecentSentinel and nil.
func resolveTime(raw RawStory) (string, *time.Time) {
	for _, k := range timeKeys {
		s, ok := scalarString(raw[k])
		if !ok {
			continue
		}
		if t, ok := parseTimestamp(s); ok {
			return t.Format(DisplayLayout), &t
		}
	}
	return RecentSentinel, nil
}

// parseTimestamp tries the known layouts, then unix seconds or milliseconds.
// The result is always UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < minUnixSeconds {
		return time.Time{}, false
	}
	if f >= 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), true
}

// FilterByTimeRange keeps stories published within [from, to]. A nil bound is
// open. Stories without a parsed timestamp never match a bounded range.
func FilterByTimeRange(stories []NormalizedStory, from, to *time.Time) []NormalizedStory {
	out := make([]NormalizedStory, 0, len(stories))
	for _, s := range stories {
		if from == nil && to == nil {
			out = append(out, s)
			continue
		}
		if s.PublishedAt == nil {
			continue
		}
		if from != nil && s.PublishedAt.Before(*from) {
			continue
		}
		if to != nil && s.PublishedAt.After(*to) {
			continue
		}
		out = append(out, s)
	}
	return out
}
