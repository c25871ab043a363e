package transcript

import (
	"context"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// YtDlpAdapter mirrors yt-dlp's subtitle extraction path by going
// through the kkdai/youtube player-config client rather than scraping
// the watch page HTML directly. Grounded on the teacher's
// internal/youtube/kkdai_fetcher.go, generalized to try every requested
// language in order and to always append English as a trailing
// candidate (CORE SPEC §4.3.3 / Open Question #3: kept as an
// intentional asymmetry matching the original's fetch_ytdlp).
type YtDlpAdapter struct {
	timeout time.Duration
}

func NewYtDlpAdapter(timeout time.Duration) *YtDlpAdapter {
	return &YtDlpAdapter{timeout: timeout}
}

func (a *YtDlpAdapter) Name() string        { return "ytdlp" }
func (a *YtDlpAdapter) SupportsProxy() bool { return true }

func (a *YtDlpAdapter) FetchTranscript(ctx context.Context, videoID string, languages []string, opts acquisition.Options, prov *proxy.Provider) (*models.TranscriptPayload, error) {
	proxyURL := ""
	if prov != nil {
		proxyURL = prov.ProxyHandle
	}
	httpClient, err := newHTTPClient(a.timeout, proxyURL)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "client setup failed", err)
	}

	client := &youtube.Client{HTTPClient: httpClient}
	video, err := client.GetVideoContext(ctx, videoID)
	if err != nil {
		if isBlockedErr(err) {
			return nil, acquisition.Blocked(a.Name(), "bot challenge on player config")
		}
		return nil, acquisition.Transient(a.Name(), "get video failed", err)
	}
	if len(video.CaptionTracks) == 0 {
		return nil, acquisition.NoContent(a.Name(), "no caption tracks")
	}

	candidates := appendEnglishUnconditionally(languages)

	var lastErr error
	for _, lang := range candidates {
		segs, err := client.GetTranscript(video, lang)
		if err != nil {
			lastErr = err
			continue
		}
		if len(segs) == 0 {
			continue
		}
		return toPayload(videoID, video, lang, segs, a.Name()), nil
	}

	// No requested (or English) language matched a listed track; fall
	// back to whatever the first track is, matching the original's
	// final-resort behavior.
	firstLang := video.CaptionTracks[0].LanguageCode
	segs, err := client.GetTranscript(video, firstLang)
	if err != nil || len(segs) == 0 {
		if lastErr == nil {
			lastErr = err
		}
		return nil, acquisition.NoContent(a.Name(), "no track yielded a transcript")
	}
	return toPayload(videoID, video, firstLang, segs, a.Name()), nil
}

func toPayload(videoID string, video *youtube.Video, lang string, segs []youtube.TranscriptSegment, source string) *models.TranscriptPayload {
	snippets := make([]models.TranscriptSnippet, 0, len(segs))
	for _, s := range segs {
		snippets = append(snippets, models.TranscriptSnippet{
			Text:     s.Text,
			Start:    float64(s.StartMs) / 1000.0,
			Duration: float64(s.Duration) / 1000.0,
		})
	}
	return &models.TranscriptPayload{
		VideoID:  videoID,
		Text:     joinSnippets(snippets),
		Language: models.TranscriptLanguage{Code: lang},
		Snippets: snippets,
		Source:   source,
	}
}

// appendEnglishUnconditionally appends "en" to the candidate list even
// when the caller never asked for it, matching fetch_ytdlp's behavior in
// the original implementation.
func appendEnglishUnconditionally(languages []string) []string {
	out := append([]string{}, languages...)
	for _, l := range out {
		if strings.EqualFold(l, "en") {
			return out
		}
	}
	return append(out, "en")
}

func isBlockedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sign in") || strings.Contains(msg, "confirm you're not a bot")
}
