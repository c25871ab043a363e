package comment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// DownloaderAdapter walks the watch page's embedded ytInitialData for the
// top-level comment continuation token, then pages through the
// youtubei/v1/next continuation endpoint the way youtube-comment-downloader
// does. It follows the first continuation token found in ytInitialData and
// does not select a sort order. Grounded on the original's
// _fetch_comments_downloader and on the teacher's own watch-page-scraping
// approach in internal/youtube/service.go (fetchVideoData).
type DownloaderAdapter struct {
	timeout  time.Duration
	maxFetch int
	limit    int
	maxPages int
}

func NewDownloaderAdapter(timeout time.Duration, maxFetch, limit int) *DownloaderAdapter {
	return &DownloaderAdapter{timeout: timeout, maxFetch: maxFetch, limit: limit, maxPages: 5}
}

func (a *DownloaderAdapter) Name() string        { return "youtube-comment-downloader" }
func (a *DownloaderAdapter) SupportsProxy() bool { return true }

var (
	initialDataRe = regexp.MustCompile(`var ytInitialData\s*=\s*(\{.+?\});`)
	apiKeyRe      = regexp.MustCompile(`"INNERTUBE_API_KEY":"([^"]+)"`)
	clientVerRe   = regexp.MustCompile(`"INNERTUBE_CONTEXT_CLIENT_VERSION":"([^"]+)"`)
)

func (a *DownloaderAdapter) FetchComments(ctx context.Context, videoID string, useProxy bool, prov *proxy.Provider) ([]string, error) {
	proxyURL := ""
	if useProxy && prov != nil {
		proxyURL = prov.ProxyHandle
	}
	client, err := newDownloaderHTTPClient(a.timeout, proxyURL)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "client setup failed", err)
	}

	body, err := fetchWatchPage(ctx, client, videoID)
	if err != nil {
		return nil, err
	}

	apiKey, clientVer, ok := extractInnertubeCreds(body)
	if !ok {
		if looksLikeBotChallenge(string(body)) {
			return nil, acquisition.Blocked(a.Name(), "bot challenge on watch page")
		}
		return nil, acquisition.NoContent(a.Name(), "innertube credentials not found")
	}

	continuation, ok := extractCommentsContinuation(body)
	if !ok {
		return nil, acquisition.NoContent(a.Name(), "comments disabled or continuation not found")
	}

	var comments []string
	for page := 0; page < a.maxPages && len(comments) < a.maxFetch; page++ {
		texts, next, err := fetchCommentPage(ctx, client, apiKey, clientVer, continuation)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			break
		}
		comments = append(comments, texts...)
		if next == "" {
			break
		}
		continuation = next
	}

	if len(comments) > a.limit {
		comments = comments[:a.limit]
	}
	return comments, nil
}

func extractInnertubeCreds(body []byte) (apiKey, clientVersion string, ok bool) {
	km := apiKeyRe.FindSubmatch(body)
	vm := clientVerRe.FindSubmatch(body)
	if km == nil || vm == nil {
		return "", "", false
	}
	return string(km[1]), string(vm[1]), true
}

func extractCommentsContinuation(body []byte) (string, bool) {
	m := initialDataRe.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	// The continuation token lives several levels deep in ytInitialData;
	// rather than modeling the entire nested renderer tree we scan for
	// the first continuationCommand token string, which is what every
	// top-level-comments continuation request needs.
	tokenRe := regexp.MustCompile(`"token":"([^"]+)"`)
	tm := tokenRe.FindSubmatch(m[1])
	if tm == nil {
		return "", false
	}
	return string(tm[1]), true
}

type nextResponse struct {
	OnResponseReceivedEndpoints []struct {
		AppendContinuationItemsAction struct {
			ContinuationItems []json.RawMessage `json:"continuationItems"`
		} `json:"appendContinuationItemsAction"`
		ReloadContinuationItemsCommand struct {
			ContinuationItems []json.RawMessage `json:"continuationItems"`
		} `json:"reloadContinuationItemsCommand"`
	} `json:"onResponseReceivedEndpoints"`
}

func fetchCommentPage(ctx context.Context, client *http.Client, apiKey, clientVersion, continuation string) ([]string, string, error) {
	reqBody := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    "WEB",
				"clientVersion": clientVersion,
			},
		},
		"continuation": continuation,
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", err
	}

	endpoint := fmt.Sprintf("https://www.youtube.com/youtubei/v1/next?key=%s", apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	withScrapeHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("continuation request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("continuation status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	var parsed nextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", err
	}

	var texts []string
	nextToken := ""
	for _, ep := range parsed.OnResponseReceivedEndpoints {
		items := ep.AppendContinuationItemsAction.ContinuationItems
		if len(items) == 0 {
			items = ep.ReloadContinuationItemsCommand.ContinuationItems
		}
		for _, item := range items {
			if text, ok := extractCommentText(item); ok {
				texts = append(texts, text)
				continue
			}
			if token, ok := extractContinuationToken(item); ok {
				nextToken = token
			}
		}
	}
	return texts, nextToken, nil
}

func extractCommentText(item json.RawMessage) (string, bool) {
	var probe struct {
		CommentThreadRenderer struct {
			Comment struct {
				CommentRenderer struct {
					ContentText struct {
						Runs []struct {
							Text string `json:"text"`
						} `json:"runs"`
					} `json:"contentText"`
				} `json:"commentRenderer"`
			} `json:"comment"`
		} `json:"commentThreadRenderer"`
	}
	if err := json.Unmarshal(item, &probe); err != nil {
		return "", false
	}
	runs := probe.CommentThreadRenderer.Comment.CommentRenderer.ContentText.Runs
	if len(runs) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String(), sb.Len() > 0
}

func extractContinuationToken(item json.RawMessage) (string, bool) {
	var probe struct {
		ContinuationItemRenderer struct {
			ContinuationEndpoint struct {
				ContinuationCommand struct {
					Token string `json:"token"`
				} `json:"continuationCommand"`
			} `json:"continuationEndpoint"`
		} `json:"continuationItemRenderer"`
	}
	if err := json.Unmarshal(item, &probe); err != nil {
		return "", false
	}
	token := probe.ContinuationItemRenderer.ContinuationEndpoint.ContinuationCommand.Token
	return token, token != ""
}
