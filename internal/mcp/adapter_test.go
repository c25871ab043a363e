package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/models"
)

func TestToTranscriptResponseDerivesEndFromStartAndDuration(t *testing.T) {
	payload := &models.TranscriptPayload{
		VideoID:  "dQw4w9WgXcQ",
		Text:     "hello world",
		Language: models.TranscriptLanguage{Code: "en", IsGenerated: true},
		Snippets: []models.TranscriptSnippet{
			{Text: "hello", Start: 0, Duration: 1.5},
			{Text: "world", Start: 1.5, Duration: 2},
		},
	}

	resp := toTranscriptResponse(payload, true)
	assert.Equal(t, "en", resp.Language)
	assert.Equal(t, models.TranscriptTypeGenerated, resp.TranscriptType)
	assert.Len(t, resp.Transcript, 2)
	assert.InDelta(t, 1.5, resp.Transcript[0].End, 0.0001)
	assert.InDelta(t, 3.5, resp.Transcript[1].End, 0.0001)
	assert.InDelta(t, 3.5, resp.DurationSeconds, 0.0001)
}

func TestFormatSegmentsProducesValidSRT(t *testing.T) {
	segments := []models.TranscriptSegment{
		{Text: "hello", Start: 0, End: 1},
		{Text: "world", Start: 1, End: 2.5},
	}
	out := formatSegments(segments, models.FormatTypeSRT, false)
	assert.Contains(t, out, "1\n00:00:00,000 --> 00:00:01,000\nhello")
	assert.Contains(t, out, "2\n00:00:01,000 --> 00:00:02,500\nworld")
}

func TestFormatSegmentsProducesValidVTT(t *testing.T) {
	segments := []models.TranscriptSegment{{Text: "hi", Start: 0, End: 1}}
	out := formatSegments(segments, models.FormatTypeVTT, false)
	assert.Contains(t, out, "WEBVTT")
	assert.Contains(t, out, "00:00:00.000 --> 00:00:01.000")
}

func TestFormatAsSentencesAddsTerminalPunctuation(t *testing.T) {
	segments := []models.TranscriptSegment{{Text: "hello there", Start: 0, End: 1}}
	out := formatAsSentences(segments, false)
	assert.Equal(t, "hello there.", out)
}

func TestToToolErrorMapsInvalidIDKind(t *testing.T) {
	err := toToolError(&acquisition.ErrInvalidID{Input: "bad"})
	toolErr, ok := err.(*models.TranscriptError)
	assert.True(t, ok)
	assert.Equal(t, models.ErrorTypeInvalidVideoID, toolErr.Type)
}

func TestToToolErrorMapsUpstreamBlocked(t *testing.T) {
	err := toToolError(acquisition.Blocked("primary", "sign-in wall"))
	toolErr, ok := err.(*models.TranscriptError)
	assert.True(t, ok)
	assert.Equal(t, models.ErrorTypeCaptchaRequired, toolErr.Type)
}
