package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatch(t *testing.T) {
	t.Run("search response", func(t *testing.T) {
		stories, err := ParseBatch([]byte(`{"message":"Search completed successfully.","results":[{"id":1,"lat":31.5},{"id":2}]}`))
		require.NoError(t, err)
		require.Len(t, stories, 2)
		assert.Equal(t, json.Number("1"), stories[0]["id"])
		assert.Equal(t, json.Number("31.5"), stories[0]["lat"])
	})

	t.Run("bare array with null and scalar entries", func(t *testing.T) {
		stories, err := ParseBatch([]byte(`[{"id":"a"}, null, "oops", {"id":"b"}]`))
		require.NoError(t, err)
		require.Len(t, stories, 4)
		assert.Nil(t, stories[1])
		assert.Nil(t, stories[2])
		assert.Len(t, Dedupe(stories), 2)
	})

	t.Run("single story object", func(t *testing.T) {
		stories, err := ParseBatch([]byte(`{"title":"Uploaded","lat":"1","lon":"2"}`))
		require.NoError(t, err)
		require.Len(t, stories, 1)
		assert.Equal(t, "Uploaded", stories[0]["title"])
	})

	t.Run("large ids keep precision", func(t *testing.T) {
		stories, err := ParseBatch([]byte(`[{"id":12345678901234567891}]`))
		require.NoError(t, err)
		assert.Equal(t, StoryIdentity("id:12345678901234567891"), ResolveIdentity(stories[0], 0))
	})

	t.Run("null results", func(t *testing.T) {
		stories, err := ParseBatch([]byte(`{"results":null}`))
		require.NoError(t, err)
		assert.Empty(t, stories)
	})

	t.Run("null payload", func(t *testing.T) {
		stories, err := ParseBatch([]byte(`null`))
		require.NoError(t, err)
		assert.Empty(t, stories)
	})

	t.Run("results not an array", func(t *testing.T) {
		_, err := ParseBatch([]byte(`{"results":"nope"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse story batch")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseBatch([]byte("{invalid json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse story batch")
	})

	t.Run("top-level scalar", func(t *testing.T) {
		_, err := ParseBatch([]byte(`42`))
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseBatch([]byte("   "))
		require.ErrorIs(t, err, ErrEmptyPayload)
	})
}
