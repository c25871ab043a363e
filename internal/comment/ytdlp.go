package comment

import (
	"context"
	"time"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// YtDlpCommentAdapter mirrors yt-dlp's comment extraction path: it walks
// the same youtubei continuation flow as DownloaderAdapter (the same WEB
// innertube client context, via the shared fetchCommentPage), and captures warning/error-level
// diagnostics the way yt-dlp's own logger does so a sign-in wall can be
// told apart from an ordinary transient failure. Grounded on the
// original's _fetch_comments_yt_dlp / _YtDlpCaptureLogger /
// PermanentCommentBlock.
type YtDlpCommentAdapter struct {
	timeout  time.Duration
	maxFetch int
	limit    int
}

func NewYtDlpCommentAdapter(timeout time.Duration, maxFetch, limit int) *YtDlpCommentAdapter {
	return &YtDlpCommentAdapter{timeout: timeout, maxFetch: maxFetch, limit: limit}
}

func (a *YtDlpCommentAdapter) Name() string        { return "yt-dlp" }
func (a *YtDlpCommentAdapter) SupportsProxy() bool { return true }

func (a *YtDlpCommentAdapter) FetchComments(ctx context.Context, videoID string, useProxy bool, prov *proxy.Provider) ([]string, error) {
	proxyURL := ""
	if useProxy && prov != nil {
		proxyURL = prov.ProxyHandle
	}
	client, err := newDownloaderHTTPClient(a.timeout, proxyURL)
	if err != nil {
		return nil, acquisition.Transient(a.Name(), "client setup failed", err)
	}

	logger := &captureLogger{}

	body, err := fetchWatchPage(ctx, client, videoID)
	if err != nil {
		logger.Error(err.Error())
		if blocked, reason := DetectPermanentBlock(logger.messages, ""); blocked {
			return nil, &ErrPermanentBlock{Reason: reason}
		}
		return nil, err
	}

	if blocked, reason := DetectPermanentBlock(nil, string(body)); blocked {
		return nil, &ErrPermanentBlock{Reason: reason}
	}

	apiKey, clientVersion, ok := extractInnertubeCreds(body)
	if !ok {
		return nil, acquisition.NoContent(a.Name(), "innertube credentials not found")
	}
	continuation, ok := extractCommentsContinuation(body)
	if !ok {
		return nil, acquisition.NoContent(a.Name(), "comments disabled or continuation not found")
	}

	var comments []string
	for page := 0; page < 5 && len(comments) < a.maxFetch; page++ {
		texts, next, err := fetchCommentPage(ctx, client, apiKey, clientVersion, continuation)
		if err != nil {
			logger.Warning(err.Error())
			if blocked, reason := DetectPermanentBlock(logger.messages, ""); blocked {
				return nil, &ErrPermanentBlock{Reason: reason}
			}
			if page == 0 {
				return nil, acquisition.Transient(a.Name(), "continuation fetch failed", err)
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
