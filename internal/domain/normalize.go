package domain

// Normalize builds the canonical view of a story. Every field has a fallback,
// so Normalize always returns a value; a story whose coordinates cannot be
// resolved comes back with HasCoordinates false and must be kept off the map.
// The input is only read.
func Normalize(raw RawStory, id StoryIdentity) NormalizedStory {
	images := resolveLinks(raw, imageListKeys, imageFallbackKeys)
	videos := resolveLinks(raw, videoListKeys, videoFallbackKeys)
	display, published := resolveTime(raw)
	sourceID, _ := SourceID(raw)

	story := NormalizedStory{
		ID:          id,
		SourceID:    sourceID,
		Title:       resolveTitle(raw),
		City:        orDefault(resolveText(raw, cityKeys), UnknownCity),
		Country:     orDefault(resolveText(raw, countryKeys), UnknownCountry),
		Description: orDefault(resolveText(raw, descriptionKeys), NoDescription),
		Source:      firstText(raw, sourceKeys),
		Tags:        resolveTags(raw),
		ImageLinks:  images,
		VideoLinks:  videos,
		Attachments: attachmentsFor(images, videos),
		Time:        display,
		PublishedAt: published,
	}

	if lat, lon, ok := resolveCoordinates(raw); ok {
		story.Lat = lat
		story.Lon = lon
		story.HasCoordinates = true
	}
	return story
}

// MediaOfKind returns the attachments of one kind, in order.
func (s NormalizedStory) MediaOfKind(kind MediaKind) []Attachment {
	var out []Attachment
	for _, a := range s.Attachments {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
