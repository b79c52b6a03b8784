package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentity_ExplicitID(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawStory
		expected StoryIdentity
	}{
		{"int id", RawStory{"id": 1}, "id:1"},
		{"float id from plain JSON", RawStory{"id": 1.0}, "id:1"},
		{"json number id", RawStory{"id": json.Number("12345678901234567")}, "id:12345678901234567"},
		{"string id trimmed and folded", RawStory{"id": "  AbC-42 "}, "id:abc-42"},
		{"story_id when id absent", RawStory{"story_id": "s-9"}, "id:s-9"},
		{"storyId camel case", RawStory{"storyId": 7}, "id:7"},
		{"_id last in priority", RawStory{"_id": "mongo"}, "id:mongo"},
		{"id wins over news_id", RawStory{"news_id": 5, "id": 4}, "id:4"},
		{"null id falls through", RawStory{"id": nil, "uuid": "U-1"}, "id:u-1"},
		{"blank id falls through", RawStory{"id": "  ", "document_id": "d"}, "id:d"},
		{"id wins over reference and geo", RawStory{"id": 3, "url": "https://x", "lat": 1, "lon": 2}, "id:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveIdentity(tt.raw, 0))
		})
	}
}

func TestResolveIdentity_UnicodeFolding(t *testing.T) {
	upper := ResolveIdentity(RawStory{"id": "ÄRGER"}, 0)
	lower := ResolveIdentity(RawStory{"id": "ärger"}, 0)
	decomposed := ResolveIdentity(RawStory{"id": "a\u0308rger"}, 0)

	assert.Equal(t, upper, lower)
	assert.Equal(t, lower, decomposed)
}

func TestResolveIdentity_ReferenceFallback(t *testing.T) {
	id := ResolveIdentity(RawStory{"source_url": "HTTPS://Example.com/Story/1", "lat": 31.5, "lon": 34.5}, 0)
	assert.Equal(t, StoryIdentity("ref:https://example.com/story/1"), id)

	id = ResolveIdentity(RawStory{"external_id": "", "link": "t.me/channel/10"}, 0)
	assert.Equal(t, StoryIdentity("ref:t.me/channel/10"), id)
}

func TestResolveIdentity_ReferenceKeyOrder(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawStory
		expected StoryIdentity
	}{
		{"article_url", RawStory{"article_url": "https://news.test/A", "title": "Strike"}, "ref:https://news.test/a"},
		{"reference_id", RawStory{"reference_id": "REF-9", "lat": 1, "lon": 2}, "ref:ref-9"},
		{"external_id first", RawStory{"external_id": "ext", "reference_id": "ref", "url": "u"}, "ref:ext"},
		{"reference_id before url", RawStory{"reference_id": "ref", "url": "u"}, "ref:ref"},
		{"url before source_url", RawStory{"source_url": "s", "url": "u"}, "ref:u"},
		{"source_url before article_url", RawStory{"article_url": "a", "source_url": "s"}, "ref:s"},
		{"article_url before link", RawStory{"link": "l", "article_url": "a"}, "ref:a"},
		{"link before extras", RawStory{"permalink": "p", "sourceUrl": "c", "link": "l"}, "ref:l"},
		{"sourceUrl before permalink", RawStory{"permalink": "p", "sourceUrl": "c"}, "ref:c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveIdentity(tt.raw, 0))
		})
	}
}

func TestSourceID(t *testing.T) {
	tests := []struct {
		name   string
		raw    RawStory
		want   any
		wantOK bool
	}{
		{"json number kept as number", RawStory{"id": json.Number("42")}, json.Number("42"), true},
		{"string trimmed, case kept", RawStory{"story_id": "  AbC "}, "AbC", true},
		{"blank skipped", RawStory{"id": " ", "uuid": "u-1"}, "u-1", true},
		{"composite id has no source id", RawStory{"id": map[string]any{"k": 1}}, nil, false},
		{"reference only", RawStory{"url": "https://x.test"}, nil, false},
		{"nothing", RawStory{"title": "x"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SourceID(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIdentity_GeoFallback(t *testing.T) {
	raw := RawStory{"lat": 31.5, "lon": 34.5, "title": "Same Subject", "time": "2024-05-01T10:30:00Z"}

	id := ResolveIdentity(raw, 0)

	assert.Equal(t, StoryIdentity("geo:31.50000:34.50000:same subject:2024-05-01t10:30:00z"), id)
}

func TestResolveIdentity_StableAcrossProducerNaming(t *testing.T) {
	base := ResolveIdentity(RawStory{"lat": 31.5, "lon": 34.5, "title": "Gaza update", "time": "2024-05-01"}, 0)

	variants := []RawStory{
		{"latitude": 31.5, "longitude": 34.5, "title": "Gaza update", "time": "2024-05-01"},
		{"result_lat": "31.5", "result_lon": "34.5", "title": "Gaza update", "time": "2024-05-01"},
		{"lat_result": json.Number("31.5"), "lon_result": json.Number("34.5"), "subject": "Gaza update", "date": "2024-05-01"},
		{"lat": 31.500001, "lon": 34.499999, "title": "Gaza update", "time": "2024-05-01"},
	}
	for i, v := range variants {
		assert.Equal(t, base, ResolveIdentity(v, i+1), "variant %d", i)
	}
}

func TestResolveIdentity_ExplicitCannotCollideWithSynthesized(t *testing.T) {
	synth := ResolveIdentity(RawStory{"lat": 31.5, "lon": 34.5, "title": "x"}, 0)
	explicit := ResolveIdentity(RawStory{"id": string(synth)}, 0)

	assert.NotEqual(t, synth, explicit)
	assert.Equal(t, StoryIdentity("id:"+string(synth)), explicit)
}

func TestResolveIdentity_TitleFallback(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawStory
		expected StoryIdentity
	}{
		{"title", RawStory{"title": "Hello World"}, "title:hello world"},
		{"subject", RawStory{"subject": "Market Fire"}, "title:market fire"},
		{"message prefix", RawStory{"message": "Breaking news from Gaza"}, "title:breaking news from gaza"},
		{"description only", RawStory{"description": "Quiet Night"}, "title:quiet night"},
		{"unresolvable coordinates", RawStory{"lat": nil, "lon": nil, "title": "No Map"}, "title:no map"},
		{"summary when no text fields", RawStory{"summary": "Calm Day"}, "title:calm day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveIdentity(tt.raw, 0))
		})
	}
}

func TestResolveIdentity_LongMessageIsNotTruncated(t *testing.T) {
	msg := strings.Repeat("Breaking: air raid sirens sounding across the city. ", 4) + "Residents urged to shelter in Rafah"

	id := ResolveIdentity(RawStory{"message": msg}, 0)
	assert.Equal(t, StoryIdentity("title:"+strings.ToLower(msg)), id)

	geo := ResolveIdentity(RawStory{"message": msg, "lat": 31.3, "lon": 34.2}, 0)
	assert.True(t, strings.HasSuffix(string(geo), "in rafah:"), string(geo))
}

func TestResolveIdentity_PositionalFallback(t *testing.T) {
	assert.Equal(t, StoryIdentity("index:3"), ResolveIdentity(RawStory{}, 3))
	assert.Equal(t, StoryIdentity("index:0"), ResolveIdentity(RawStory{"lat": nil, "lon": nil, "tags": "x"}, 0))

	id := ResolveIdentity(RawStory{"views": 10}, 7)
	assert.True(t, id.IsPositional())
	assert.False(t, StoryIdentity("id:7").IsPositional())
}
