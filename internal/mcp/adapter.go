package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/comment"
	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/transcript"
)

// EngineAdapter backs the MCP tool surface (YouTubeService) with the
// transcript and comment acquisition engines, translating between the
// engines' acquisition-focused payload types and the richer MCP
// response models the tool handlers already know how to serialize.
type EngineAdapter struct {
	transcript *transcript.Engine
	comment    *comment.Engine
}

// NewEngineAdapter wires the acquisition engines behind the YouTubeService
// interface the MCP tool handlers depend on.
func NewEngineAdapter(t *transcript.Engine, c *comment.Engine) *EngineAdapter {
	return &EngineAdapter{transcript: t, comment: c}
}

func (a *EngineAdapter) GetTranscript(ctx context.Context, videoID string, languages []string, preserveFormatting bool) (*models.TranscriptResponse, error) {
	payload, err := a.transcript.FetchTranscript(ctx, videoID, languages, "", acquisition.DefaultOptions())
	if err != nil {
		return nil, toToolError(err)
	}
	return toTranscriptResponse(payload, preserveFormatting), nil
}

func (a *EngineAdapter) GetMultipleTranscripts(ctx context.Context, videoIDs []string, languages []string, continueOnError bool) (*models.MultipleTranscriptResponse, error) {
	result := &models.MultipleTranscriptResponse{
		TotalCount: len(videoIDs),
	}

	for _, videoID := range videoIDs {
		start := time.Now()
		resp, err := a.GetTranscript(ctx, videoID, languages, false)
		if err != nil {
			result.ErrorCount++
			toolErr, _ := err.(*models.TranscriptError)
			if toolErr == nil {
				toolErr = &models.TranscriptError{Type: models.ErrorTypeInternalError, Message: err.Error()}
			}
			toolErr.VideoID = videoID
			result.Errors = append(result.Errors, *toolErr)
			result.Results = append(result.Results, models.TranscriptResult{VideoID: videoID, Success: false, Error: toolErr, ProcessingTime: time.Since(start)})
			if !continueOnError {
				break
			}
			continue
		}
		result.SuccessCount++
		result.Results = append(result.Results, models.TranscriptResult{VideoID: videoID, Success: true, Transcript: resp, ProcessingTime: time.Since(start)})
	}

	return result, nil
}

func (a *EngineAdapter) ListAvailableLanguages(ctx context.Context, videoID string) (*models.AvailableLanguagesResponse, error) {
	payload, err := a.transcript.FetchTranscript(ctx, videoID, nil, "", acquisition.DefaultOptions())
	if err != nil {
		return nil, toToolError(err)
	}

	languages := make([]models.LanguageInfo, 0, len(payload.Tracks))
	translatable := 0
	for _, track := range payload.Tracks {
		if track.IsTranslatable {
			translatable++
		}
		languages = append(languages, models.LanguageInfo{
			Code:         track.Code,
			Name:         track.Label,
			Type:         trackType(track.IsGenerated),
			IsTranslated: false,
			IsDefault:    strings.EqualFold(track.Code, payload.Language.Code),
		})
	}

	return &models.AvailableLanguagesResponse{
		VideoID:           videoID,
		Languages:         languages,
		DefaultLanguage:   payload.Language.Code,
		TranslatableCount: translatable,
	}, nil
}

func (a *EngineAdapter) TranslateTranscript(ctx context.Context, videoID, targetLanguage, sourceLanguage string) (*models.TranscriptResponse, error) {
	langs := []string{targetLanguage}
	if sourceLanguage != "" {
		langs = append(langs, sourceLanguage)
	}
	opts := acquisition.Options{PreferOriginal: false, StrictLanguages: false, AllowTranslate: true}
	payload, err := a.transcript.FetchTranscript(ctx, videoID, langs, "", opts)
	if err != nil {
		return nil, toToolError(err)
	}
	return toTranscriptResponse(payload, true), nil
}

func (a *EngineAdapter) FormatTranscript(ctx context.Context, videoID, formatType string, includeTimestamps bool) (*models.TranscriptResponse, error) {
	payload, err := a.transcript.FetchTranscript(ctx, videoID, nil, "", acquisition.DefaultOptions())
	if err != nil {
		return nil, toToolError(err)
	}
	resp := toTranscriptResponse(payload, true)
	resp.FormattedText = formatSegments(resp.Transcript, formatType, includeTimestamps)
	return resp, nil
}

// toTranscriptResponse converts the engine's acquisition-focused payload
// into the MCP tool response shape, deriving segment End times from
// Start+Duration since the acquisition adapters only carry the latter.
func toTranscriptResponse(payload *models.TranscriptPayload, preserveFormatting bool) *models.TranscriptResponse {
	segments := make([]models.TranscriptSegment, 0, len(payload.Snippets))
	for _, snip := range payload.Snippets {
		text := snip.Text
		if !preserveFormatting {
			text = strings.TrimSpace(text)
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     text,
			Start:    snip.Start,
			Duration: snip.Duration,
			End:      snip.Start + snip.Duration,
		})
	}

	transcriptType := models.TranscriptTypeManual
	if payload.Language.IsGenerated {
		transcriptType = models.TranscriptTypeGenerated
	}

	return &models.TranscriptResponse{
		VideoID:         payload.VideoID,
		Language:        payload.Language.Code,
		TranscriptType:  transcriptType,
		Transcript:      segments,
		FormattedText:   payload.Text,
		WordCount:       len(strings.Fields(payload.Text)),
		CharCount:       len(payload.Text),
		DurationSeconds: calculateDuration(segments),
		Metadata: models.TranscriptMetadata{
			ExtractionTimestamp: time.Now().UTC(),
			LanguageDetected:    payload.Language.Code,
			Source:              payload.Source,
		},
	}
}

func trackType(isGenerated bool) string {
	if isGenerated {
		return models.TranscriptTypeGenerated
	}
	return models.TranscriptTypeManual
}

func toToolError(err error) error {
	if invalid, ok := err.(*acquisition.ErrInvalidID); ok {
		return &models.TranscriptError{Type: models.ErrorTypeInvalidVideoID, Message: invalid.Error()}
	}
	if adapterErr, ok := err.(*acquisition.AdapterError); ok {
		switch adapterErr.Kind {
		case acquisition.KindUpstreamBlocked:
			return &models.TranscriptError{Type: models.ErrorTypeCaptchaRequired, Message: adapterErr.Error()}
		case acquisition.KindOrchestratorTimeout:
			return &models.TranscriptError{Type: models.ErrorTypeTimeout, Message: adapterErr.Error()}
		case acquisition.KindNoContent:
			return &models.TranscriptError{Type: models.ErrorTypeNoTranscriptFound, Message: adapterErr.Error()}
		default:
			return &models.TranscriptError{Type: models.ErrorTypeNetworkError, Message: adapterErr.Error()}
		}
	}
	return &models.TranscriptError{Type: models.ErrorTypeInternalError, Message: err.Error()}
}

// formatSegments renders a fetched transcript into one of the tool
// surface's output formats.
func formatSegments(segments []models.TranscriptSegment, formatType string, includeTimestamps bool) string {
	switch formatType {
	case models.FormatTypeParagraphs:
		return formatAsParagraphs(segments, includeTimestamps)
	case models.FormatTypeSentences:
		return formatAsSentences(segments, includeTimestamps)
	case models.FormatTypeSRT:
		return formatAsSRT(segments)
	case models.FormatTypeVTT:
		return formatAsVTT(segments)
	default:
		return formatAsPlainText(segments, includeTimestamps)
	}
}

func formatAsPlainText(segments []models.TranscriptSegment, includeTimestamps bool) string {
	var builder strings.Builder
	for _, segment := range segments {
		if includeTimestamps {
			builder.WriteString(fmt.Sprintf("[%.1fs] ", segment.Start))
		}
		builder.WriteString(segment.Text)
		builder.WriteString(" ")
	}
	return strings.TrimSpace(builder.String())
}

func formatAsParagraphs(segments []models.TranscriptSegment, includeTimestamps bool) string {
	var builder strings.Builder
	var current strings.Builder

	for i, segment := range segments {
		if includeTimestamps && current.Len() == 0 {
			current.WriteString(fmt.Sprintf("[%.1fs] ", segment.Start))
		}
		current.WriteString(segment.Text)
		current.WriteString(" ")

		if (i+1)%5 == 0 || strings.HasSuffix(strings.TrimSpace(segment.Text), ".") {
			builder.WriteString(strings.TrimSpace(current.String()))
			builder.WriteString("\n\n")
			current.Reset()
		}
	}
	if current.Len() > 0 {
		builder.WriteString(strings.TrimSpace(current.String()))
	}
	return strings.TrimSpace(builder.String())
}

func formatAsSentences(segments []models.TranscriptSegment, includeTimestamps bool) string {
	var builder strings.Builder
	for _, segment := range segments {
		if includeTimestamps {
			builder.WriteString(fmt.Sprintf("[%.1fs] ", segment.Start))
		}
		builder.WriteString(segment.Text)
		trimmed := strings.TrimSpace(segment.Text)
		if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") && !strings.HasSuffix(trimmed, "?") {
			builder.WriteString(".")
		}
		builder.WriteString("\n")
	}
	return strings.TrimSpace(builder.String())
}

func formatAsSRT(segments []models.TranscriptSegment) string {
	var builder strings.Builder
	for i, segment := range segments {
		builder.WriteString(fmt.Sprintf("%d\n", i+1))
		builder.WriteString(fmt.Sprintf("%s --> %s\n", formatSRTTime(segment.Start), formatSRTTime(segment.End)))
		builder.WriteString(segment.Text)
		builder.WriteString("\n\n")
	}
	return strings.TrimSpace(builder.String())
}

func formatAsVTT(segments []models.TranscriptSegment) string {
	var builder strings.Builder
	builder.WriteString("WEBVTT\n\n")
	for _, segment := range segments {
		builder.WriteString(fmt.Sprintf("%s --> %s\n", formatVTTTime(segment.Start), formatVTTTime(segment.End)))
		builder.WriteString(segment.Text)
		builder.WriteString("\n\n")
	}
	return strings.TrimSpace(builder.String())
}

func formatSRTTime(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds-float64(int(seconds)))*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

func formatVTTTime(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds-float64(int(seconds)))*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

func calculateDuration(segments []models.TranscriptSegment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
