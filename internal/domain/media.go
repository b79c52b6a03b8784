package domain

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
)

var (
	imageListKeys     = []string{"image_links", "imageLinks", "images"}
	imageFallbackKeys = []string{"fileUrl", "file_url", "image_url", "imageUrl", "image", "file"}
	videoListKeys     = []string{"video_links", "videoLinks", "videos"}
	videoFallbackKeys = []string{"videoUrl", "video_url", "video"}
)

var (
	videoExtensions = map[string]struct{}{"mp4": {}, "webm": {}, "ogg": {}, "mov": {}, "avi": {}}
	imageExtensions = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "webp": {}}

	// videoHostTokens mark URLs served by video hosts regardless of extension.
	videoHostTokens = []string{"youtube.com/", "youtu.be/", "vimeo.com/", "/video/", "/videos/"}
)

// resolveLinks reads the first present list field, falling back to the
// single-URL fields when the list is absent or decodes to nothing.
func resolveLinks(raw RawStory, listKeys, fallbackKeys []string) []string {
	if v, ok := firstPresent(raw, listKeys); ok {
		if links := linksOnly(decodeList(v, "|")); len(links) > 0 {
			return links
		}
	}
	if v, ok := firstPresent(raw, fallbackKeys); ok {
		return linksOnly(decodeList(v, "|"))
	}
	return nil
}

// linksOnly is uniqueNonEmpty minus bare numbers and booleans, which
// producers emit as placeholders and never as URLs.
func linksOnly(items []string) []string {
	var out []string
	for _, s := range uniqueNonEmpty(items) {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseBool(s); err == nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// decodeList accepts a real list, a JSON-encoded array string, or a string
// delimited by any rune in seps. A JSON "null" or object string decodes to
// nothing; other JSON scalars are kept whole.
func decodeList(v any, seps string) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		return scalarStrings(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			switch d := decoded.(type) {
			case []any:
				return scalarStrings(d)
			case string:
				return []string{d}
			case nil, map[string]any:
				return nil
			default:
				return []string{s}
			}
		}
		return strings.FieldsFunc(s, func(r rune) bool {
			return strings.ContainsRune(seps, r)
		})
	default:
		if s, ok := scalarString(t); ok {
			return []string{s}
		}
		return nil
	}
}

func scalarStrings(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := scalarString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

// uniqueNonEmpty trims entries, drops blanks and removes repeats while
// keeping the order of first appearance.
func uniqueNonEmpty(items []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ClassifyMedia decides how an attachment URL is displayed. Video checks run
// first so that "clip.ogg" on a video host is never shown as a still.
func ClassifyMedia(link string) MediaKind {
	lower := strings.ToLower(strings.TrimSpace(link))
	if lower == "" {
		return MediaFile
	}

	p := lower
	if u, err := url.Parse(lower); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")

	if _, ok := videoExtensions[ext]; ok {
		return MediaVideo
	}
	for _, token := range videoHostTokens {
		if strings.Contains(lower, token) {
			return MediaVideo
		}
	}
	if _, ok := imageExtensions[ext]; ok {
		return MediaImage
	}
	return MediaFile
}

// attachmentsFor merges image and video links into one classified list.
func attachmentsFor(images, videos []string) []Attachment {
	all := uniqueNonEmpty(append(append([]string(nil), images...), videos...))
	if len(all) == 0 {
		return nil
	}
	out := make([]Attachment, len(all))
	for i, link := range all {
		out[i] = Attachment{URL: link, Kind: ClassifyMedia(link)}
	}
	return out
}
