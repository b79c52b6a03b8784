package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var (
	latKeys = []string{"lat", "latitude", "result_lat", "lat_result"}
	lonKeys = []string{"lon", "longitude", "result_lon", "lon_result"}
)

// resolveCoordinates picks the first non-null latitude and longitude
// candidates and parses them. ok is false when either side is missing,
// unparseable, non-finite, or outside WGS-84 range; later candidates are not
// consulted once a non-null one has been found.
func resolveCoordinates(raw RawStory) (lat, lon float64, ok bool) {
	latRaw, hasLat := firstPresent(raw, latKeys)
	lonRaw, hasLon := firstPresent(raw, lonKeys)
	if !hasLat || !hasLon {
		return 0, 0, false
	}

	lat, okLat := parseCoordinate(latRaw)
	lon, okLon := parseCoordinate(lonRaw)
	if !okLat || !okLon {
		return 0, 0, false
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// parseCoordinate converts a JSON number or numeric string to a finite float64.
func parseCoordinate(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
