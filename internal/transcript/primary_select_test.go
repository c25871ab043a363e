package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/youtube-transcript-mcp/internal/acquisition"
)

func TestSelectTrackTranslateOnlyChecksFirstListedTrack(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "es", IsTranslatable: false},
		{LanguageCode: "fr", IsTranslatable: true},
	}
	opts := acquisition.Options{AllowTranslate: true, StrictLanguages: true}

	_, _, ok := selectTrack(tracks, []string{"de"}, opts)
	assert.False(t, ok, "a translatable track later in the list must not be reached by step (e)")
}

func TestSelectTrackTranslatesFirstListedTrackWhenTranslatable(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "es", IsTranslatable: true},
		{LanguageCode: "fr", IsTranslatable: false},
	}
	opts := acquisition.Options{AllowTranslate: true, StrictLanguages: true}

	track, target, ok := selectTrack(tracks, []string{"de"}, opts)
	assert.True(t, ok)
	assert.Equal(t, "es", track.LanguageCode)
	assert.Equal(t, "de", target)
}
