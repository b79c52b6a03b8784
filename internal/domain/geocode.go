package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding fills sentinel city/country values of mapped stories by
// reverse geocoding their coordinates. It returns a new MarkerSet and leaves
// the input untouched. A nil geocoder disables enrichment; a failed lookup
// marks the story GeoSource "failed" and keeps its sentinels (graceful
// degradation).
func EnrichWithGeocoding(ctx context.Context, set MarkerSet, geocoder Geocoder, logger *slog.Logger) MarkerSet {
	if geocoder == nil || len(set.Stories) == 0 {
		return set
	}

	stories := make([]NormalizedStory, len(set.Stories))
	for i, story := range set.Stories {
		stories[i] = enrichStory(ctx, story, geocoder, logger)
	}
	set.Stories = stories
	return set
}

func enrichStory(ctx context.Context, story NormalizedStory, geocoder Geocoder, logger *slog.Logger) NormalizedStory {
	needsCity := story.City == UnknownCity
	needsCountry := story.Country == UnknownCountry
	if !story.HasCoordinates || (!needsCity && !needsCountry) {
		story.GeoSource = "original"
		return story
	}

	result, err := geocoder.ReverseGeocode(ctx, story.Lat, story.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"story_id", story.ID,
			"lat", story.Lat,
			"lon", story.Lon,
			"error", err,
		)
		story.GeoSource = "failed"
		return story
	}
	if result.City == "" && result.Country == "" {
		story.GeoSource = "original"
		return story
	}

	if needsCity && result.City != "" {
		story.City = result.City
	}
	if needsCountry && result.Country != "" {
		story.Country = result.Country
	}
	story.PlaceName = result.PlaceName
	story.GeoSource = "reverse"
	return story
}
