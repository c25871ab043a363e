package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmlstrip "github.com/grokify/html-strip-tags-go"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// PrimaryAdapter lists caption tracks from the watch page's embedded
// player response and selects among them per CORE SPEC §4.3.1. Grounded
// on the teacher's internal/youtube/service.go fetchVideoData /
// parseVideoData / extractCaptionTracks, with the track-selection logic
// rewritten to the spec's five-step ordering (the teacher's own
// selectBestTrack only did exact-then-prefix matching).
type PrimaryAdapter struct {
	timeout time.Duration
}

// NewPrimaryAdapter builds a primary adapter whose HTTP client uses the
// given timeout; bootstrap passes the same transcript timeout it gives the
// timedtext and yt-dlp adapters.
func NewPrimaryAdapter(timeout time.Duration) *PrimaryAdapter {
	return &PrimaryAdapter{timeout: timeout}
}

func (a *PrimaryAdapter) Name() string        { return "primary-api" }
func (a *PrimaryAdapter) SupportsProxy() bool { return true }

var playerResponseRe = regexp.MustCompile(`var ytInitialPlayerResponse\s*=\s*(\{.+?\});`)

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL        string `json:"baseUrl"`
	Name           struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
	VssID          string `json:"vssId"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
}

func (t captionTrack) isGenerated() bool {
	return t.Kind == "asr" || strings.Contains(t.VssID, ".")
}

func (a *PrimaryAdapter) FetchTranscript(ctx context.Context, videoID string, languages []string, opts acquisition.Options, prov *proxy.Provider) (*models.TranscriptPayload, error) {
	proxyURL := ""
	if prov != nil {
		proxyURL = prov.ProxyHandle
	}
	client, err := newHTTPClient(a.timeout, proxyURL)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "client setup failed", err)
	}

	tracks, err := a.listTracks(ctx, client, videoID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, acquisition.NoContent(a.Name(), "no caption tracks")
	}

	selected, translateTo, ok := selectTrack(tracks, languages, opts)
	if !ok {
		return nil, acquisition.NoContent(a.Name(), "no track matched selection rules")
	}

	fetchURL := selected.BaseURL
	resultLang := selected.LanguageCode
	if translateTo != "" {
		fetchURL = appendQuery(fetchURL, "tlang", translateTo)
		resultLang = translateTo
	}

	text, snippets, err := a.fetchCaptionText(ctx, client, fetchURL)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, acquisition.NoContent(a.Name(), "empty caption body")
	}

	manifest := make([]models.TrackInfo, 0, len(tracks))
	for _, t := range tracks {
		manifest = append(manifest, models.TrackInfo{
			Code:           t.LanguageCode,
			Label:          t.Name.SimpleText,
			IsGenerated:    t.isGenerated(),
			IsTranslatable: t.IsTranslatable,
			BaseURL:        t.BaseURL,
		})
	}

	return &models.TranscriptPayload{
		VideoID: videoID,
		Text:    text,
		Language: models.TranscriptLanguage{
			Code:        resultLang,
			Label:       selected.Name.SimpleText,
			IsGenerated: translateTo == "" && selected.isGenerated(),
		},
		Tracks:   manifest,
		Snippets: snippets,
		Source:   a.Name(),
	}, nil
}

func (a *PrimaryAdapter) listTracks(ctx context.Context, client *http.Client, videoID string) ([]captionTrack, error) {
	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "request build failed", err)
	}
	withCommonHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "watch page request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, acquisition.NoContent(a.Name(), "video unavailable")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, acquisition.Transient(a.Name(), fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "read body failed", err)
	}

	m := playerResponseRe.FindSubmatch(body)
	if m == nil {
		if looksLikeBotChallenge(string(body)) {
			return nil, acquisition.Blocked(a.Name(), "bot challenge on watch page")
		}
		return nil, acquisition.NoContent(a.Name(), "player response not found")
	}

	var pr playerResponse
	if err := json.Unmarshal(m[1], &pr); err != nil {
		return nil, acquisition.Transient(a.Name(), "player response parse failed", err)
	}
	return pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// selectTrack implements CORE SPEC §4.3.1's (a)-(e) ordering.
func selectTrack(tracks []captionTrack, languages []string, opts acquisition.Options) (captionTrack, string, bool) {
	var manual, generated []captionTrack
	for _, t := range tracks {
		if t.isGenerated() {
			generated = append(generated, t)
		} else {
			manual = append(manual, t)
		}
	}

	// (a) prefer_original, not strict: first manual, else first generated.
	if opts.PreferOriginal && !opts.StrictLanguages {
		if len(manual) > 0 {
			return manual[0], "", true
		}
		if len(generated) > 0 {
			return generated[0], "", true
		}
	}

	// (b) manual track matching requested languages, in requested order.
	if t, ok := matchByLanguageOrder(manual, languages); ok {
		return t, "", true
	}
	// (c) generated track matching requested languages, in requested order.
	if t, ok := matchByLanguageOrder(generated, languages); ok {
		return t, "", true
	}
	// (d) not strict: any manual, else any generated. Under strict, no
	// track outside the requested languages is picked here.
	if !opts.StrictLanguages && len(manual) > 0 {
		return manual[0], "", true
	}
	if !opts.StrictLanguages && len(generated) > 0 {
		return generated[0], "", true
	}
	// (e) allow_translate and the first listed track is translatable.
	if opts.AllowTranslate && len(languages) > 0 && len(tracks) > 0 && tracks[0].IsTranslatable {
		return tracks[0], languages[0], true
	}
	return captionTrack{}, "", false
}

func matchByLanguageOrder(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		for _, t := range tracks {
			if strings.EqualFold(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

func (a *PrimaryAdapter) fetchCaptionText(ctx context.Context, client *http.Client, baseURL string) (string, []models.TranscriptSnippet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", nil, acquisition.Transient(a.Name(), "caption request build failed", err)
	}
	withCommonHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, acquisition.Transient(a.Name(), "caption request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, acquisition.Transient(a.Name(), fmt.Sprintf("caption status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, acquisition.Transient(a.Name(), "caption body read failed", err)
	}

	snippets, err := parseTimedTextXML(body)
	if err != nil {
		return "", nil, acquisition.NoContent(a.Name(), "caption body unparsable")
	}
	return joinSnippets(snippets), snippets, nil
}

func joinSnippets(snippets []models.TranscriptSnippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, s.Text)
	}
	return cleanText(strings.Join(parts, " "))
}

func appendQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func looksLikeBotChallenge(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "sign in to confirm you're not a bot") ||
		strings.Contains(lower, "unusual traffic")
}

func cleanText(s string) string {
	s = htmlstrip.StripTags(s)
	s = strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
	).Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
