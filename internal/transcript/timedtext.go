package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// TimedtextAdapter hits the unofficial https://www.youtube.com/api/timedtext
// endpoint directly, bypassing the watch-page player response entirely.
// Grounded on the original's _timedtext_list_tracks / _timedtext_fetch_vtt
// / timedtext_try_languages. FetchTranscript runs whole passes over the
// candidate bases: manual tracks for every base, then ASR tracks for every
// base, then translation per base, then a brute-force fetch per base. It
// does not try a base's ASR track before the later bases' manual tracks,
// and it makes no proxied attempt of its own beyond the provider it is given.
type TimedtextAdapter struct {
	timeout time.Duration
}

func NewTimedtextAdapter(timeout time.Duration) *TimedtextAdapter {
	return &TimedtextAdapter{timeout: timeout}
}

func (a *TimedtextAdapter) Name() string        { return "timedtext" }
func (a *TimedtextAdapter) SupportsProxy() bool { return true }

type timedtextTrack struct {
	LangCode       string
	LangTranslated string
	IsASR          bool
}

func (a *TimedtextAdapter) FetchTranscript(ctx context.Context, videoID string, languages []string, opts acquisition.Options, prov *proxy.Provider) (*models.TranscriptPayload, error) {
	proxyURL := ""
	if prov != nil {
		proxyURL = prov.ProxyHandle
	}
	client, err := newHTTPClient(a.timeout, proxyURL)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "client setup failed", err)
	}

	bases := baseLanguages(languages)
	tracks, listErr := a.listTracks(ctx, client, videoID)

	// Pass 1: manual tracks across every base, in preference order, before
	// any ASR track is considered. A later base's manual track always
	// outranks an earlier base's ASR track.
	for _, base := range bases {
		track, ok := findTrack(tracks, base, false)
		if !ok {
			continue
		}
		if text, snippets, err := a.fetchTrack(ctx, client, videoID, track.LangCode, "", false); err == nil && text != "" {
			return payload(videoID, text, track.LangCode, false, snippets, a.Name()), nil
		}
	}

	// Pass 2: ASR tracks across every base, only once no manual track
	// anywhere in the preference list produced content.
	for _, base := range bases {
		track, ok := findTrack(tracks, base, true)
		if !ok {
			continue
		}
		if text, snippets, err := a.fetchTrack(ctx, client, videoID, track.LangCode, "", true); err == nil && text != "" {
			return payload(videoID, text, track.LangCode, true, snippets, a.Name()), nil
		}
	}

	// Pass 3: translated variant of the first listed track, targeting each
	// base in preference order.
	if opts.AllowTranslate && len(tracks) > 0 {
		source := tracks[0]
		for _, base := range bases {
			if text, snippets, err := a.fetchTrack(ctx, client, videoID, source.LangCode, base, source.IsASR); err == nil && text != "" {
				return payload(videoID, text, base, false, snippets, a.Name()), nil
			}
		}
	}

	// Pass 4: listing failed or yielded nothing usable, try each requested
	// base language directly against the caption endpoint without first
	// confirming it exists.
	if listErr != nil || len(tracks) == 0 {
		for _, base := range bases {
			if text, snippets, err := a.fetchTrack(ctx, client, videoID, base, "", false); err == nil && text != "" {
				return payload(videoID, text, base, false, snippets, a.Name()), nil
			}
		}
	}

	return nil, acquisition.NoContent(a.Name(), "no timedtext track produced content")
}

func (a *TimedtextAdapter) listTracks(ctx context.Context, client *http.Client, videoID string) ([]timedtextTrack, error) {
	listURL := fmt.Sprintf("https://www.youtube.com/api/timedtext?type=list&v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	withCommonHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext list status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty track list")
	}

	var tracks []timedtextTrack
	for _, el := range root.FindElements("track") {
		tracks = append(tracks, timedtextTrack{
			LangCode: el.SelectAttrValue("lang_code", ""),
			IsASR:    el.SelectAttrValue("kind", "") == "asr",
		})
	}
	return tracks, nil
}

func findTrack(tracks []timedtextTrack, base string, wantASR bool) (timedtextTrack, bool) {
	for _, t := range tracks {
		if t.IsASR != wantASR {
			continue
		}
		if strings.EqualFold(t.LangCode, base) || strings.HasPrefix(strings.ToLower(t.LangCode), base+"-") {
			return t, true
		}
	}
	return timedtextTrack{}, false
}

func (a *TimedtextAdapter) fetchTrack(ctx context.Context, client *http.Client, videoID, langCode, translateTo string, asr bool) (string, []models.TranscriptSnippet, error) {
	fetchURL := fmt.Sprintf("https://www.youtube.com/api/timedtext?v=%s&lang=%s", videoID, langCode)
	if asr {
		fetchURL += "&kind=asr"
	}
	if translateTo != "" {
		fetchURL += "&tlang=" + translateTo
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", nil, err
	}
	withCommonHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("timedtext fetch status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil, fmt.Errorf("empty timedtext body")
	}

	snippets, err := parseTimedTextXML(body)
	if err != nil {
		return "", nil, err
	}
	return joinSnippets(snippets), snippets, nil
}

func payload(videoID, text, langCode string, generated bool, snippets []models.TranscriptSnippet, source string) *models.TranscriptPayload {
	return &models.TranscriptPayload{
		VideoID: videoID,
		Text:    text,
		Language: models.TranscriptLanguage{
			Code:        langCode,
			IsGenerated: generated,
		},
		Snippets: snippets,
		Source:   source,
	}
}

// baseLanguages strips any region suffix (es-MX -> es) and de-dupes while
// preserving caller order, matching the original's base-language walk.
func baseLanguages(languages []string) []string {
	seen := make(map[string]bool, len(languages))
	var out []string
	for _, l := range languages {
		base := strings.ToLower(l)
		if i := strings.Index(base, "-"); i >= 0 {
			base = base[:i]
		}
		if seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, base)
	}
	return out
}
