package domain

// Dedupe removes repeated stories from a batch, keeping the first occurrence
// of each identity in input order. Nil entries are dropped. Running Dedupe on
// its own output returns the same stories.
func Dedupe(batch []RawStory) []RawStory {
	kept, _ := DedupeWithIdentities(batch)
	return kept
}

// DedupeWithIdentities is Dedupe that also returns the identity of each kept
// story, index-aligned with the stories.
func DedupeWithIdentities(batch []RawStory) ([]RawStory, []StoryIdentity) {
	kept := make([]RawStory, 0, len(batch))
	ids := make([]StoryIdentity, 0, len(batch))
	seen := make(map[StoryIdentity]struct{}, len(batch))

	for i, raw := range batch {
		if raw == nil {
			continue
		}
		id := ResolveIdentity(raw, i)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, raw)
		ids = append(ids, id)
	}
	return kept, ids
}
