package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyPayload is returned for a message with no body.
var ErrEmptyPayload = errors.New("empty story batch payload")

// ParseBatch decodes a story batch. Three shapes are accepted: a search
// response object with a "results" array, a bare array, and a single story
// object (upload confirmations). Numbers are kept as json.Number so large
// numeric ids survive intact. Array entries that are not objects become nil
// and are dropped by Dedupe.
func ParseBatch(data []byte) ([]RawStory, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse story batch: %w", err)
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return toStories(t), nil
	case map[string]any:
		if results, ok := t["results"]; ok {
			list, ok := results.([]any)
			if !ok && results != nil {
				return nil, fmt.Errorf("parse story batch: results is %T, want array", results)
			}
			return toStories(list), nil
		}
		return []RawStory{RawStory(t)}, nil
	default:
		return nil, fmt.Errorf("parse story batch: unexpected top-level %T", v)
	}
}

func toStories(items []any) []RawStory {
	out := make([]RawStory, len(items))
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			out[i] = RawStory(m)
		}
	}
	return out
}
