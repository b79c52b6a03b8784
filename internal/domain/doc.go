// Package domain models geotagged news stories as they arrive from the
// story producers and as the map renders them.
//
// # Data Sources
//
// Story records come from several producer versions: the search endpoint
// (which merges file uploads and Telegram scrapes), upload confirmations, and
// the initial map load. Each producer names its fields differently and encodes
// lists differently, so a record is kept as an untyped [RawStory] until the
// normaliser turns it into a [NormalizedStory]. Nothing outside this package
// reads a RawStory field directly.
//
// # Producer Conventions
//
// Coordinates:
//
//	lat / latitude / result_lat / lat_result (and the symmetric lon names).
//	Values may be JSON numbers or numeric strings ("31.5").
//	The first non-null candidate decides; a bad value is not retried against
//	later candidates.
//
// Media links (image_links, video_links and friends):
//
//	["a.jpg","b.jpg"]        real list
//	"[\"a.jpg\",\"b.jpg\"]"  JSON-encoded array (consumer-side storage)
//	"a.jpg|b.jpg"            pipe-joined (scraper output)
//	fileUrl / videoUrl       single-URL fallbacks used by the search endpoint
//
// Text:
//
//	Telegram rows carry "subject" and "message" instead of "title" and
//	"description"; "matched_city" and "city_result" stand in for city and
//	country. Text may contain HTML markup, which is stripped.
//
// Time:
//
//	RFC 3339, ISO 8601 without zone, "YYYY-MM-DD HH:MM:SS", date only, or unix
//	seconds/milliseconds. Anything else displays as "Recent", a display-only
//	sentinel that never takes part in filtering.
//
// # Identity
//
// A [StoryIdentity] is derived by [ResolveIdentity] from explicit ids, then
// reference fields, then a geo+content key rounded to [GeoKeyPrecision]
// decimals, then title text, then batch position. Explicit ids always win:
// two records with different ids are never merged even if their content
// matches.
//
// # Projection
//
// [Project] turns a batch into a [MarkerSet]: deduplicate, normalise, drop
// coordinate-invalid stories, and collect viewport bounds. A MarkerSet is a
// snapshot; a new batch produces a new MarkerSet.
package domain
