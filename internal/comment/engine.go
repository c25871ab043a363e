package comment

import (
	"context"
	"time"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/cache"
	"github.com/youtube-transcript-mcp/internal/identifier"
	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/proxy"
	"github.com/youtube-transcript-mcp/internal/singleflight"
)

// Engine runs the strict-serial comment acquisition chain: downloader
// direct, downloader proxied, yt-dlp-style direct, yt-dlp-style proxied.
// A confirmed permanent block from any strategy halts the chain
// immediately rather than trying the remaining strategies, matching the
// original's _fetch_comments_resilient. A permanent block is
// negative-cached with a short TTL (the original writes the empty result
// to both its TTL cache and its persistent shelve on
// PermanentCommentBlock); any other empty result (exhaustion without a
// confirmed block) is returned but not remembered, so the next request
// gets a fresh attempt.
type Engine struct {
	pool        *proxy.Pool
	cache       *cache.TwoTier
	coord       *singleflight.Coordinator
	downloader  acquisition.CommentAdapter
	ytdlp       acquisition.CommentAdapter
	memTTL      time.Duration
	negativeTTL time.Duration
	coalesce    time.Duration
}

func NewEngine(pool *proxy.Pool, c *cache.TwoTier, coord *singleflight.Coordinator, downloader, ytdlp acquisition.CommentAdapter, memTTL, negativeTTL, coalesce time.Duration) *Engine {
	return &Engine{pool: pool, cache: c, coord: coord, downloader: downloader, ytdlp: ytdlp, memTTL: memTTL, negativeTTL: negativeTTL, coalesce: coalesce}
}

func (e *Engine) FetchComments(ctx context.Context, rawVideoID string) (*models.CommentList, error) {
	vid, err := identifier.Normalize(rawVideoID)
	if err != nil {
		return nil, &acquisition.ErrInvalidID{Input: rawVideoID}
	}
	key := "comments:" + string(vid)

	if list, found := e.cache.GetComments(ctx, key, e.memTTL); found {
		return list, nil
	}

	leader, waitFn, release := e.coord.Join(key)
	if !leader {
		if waitFn(e.coalesce) {
			if list, found := e.cache.GetComments(ctx, key, e.memTTL); found {
				return list, nil
			}
		}
		return nil, &acquisition.AdapterError{Kind: acquisition.KindOrchestratorTimeout, Adapter: "comment-engine", Reason: "coalesced wait timed out"}
	}
	defer release()

	list, circuited := e.acquire(ctx, string(vid))
	switch {
	case circuited:
		_ = e.cache.PutNegativeComments(ctx, key, list, e.negativeTTL)
	case len(list.Comments) > 0:
		_ = e.cache.PutComments(ctx, key, list, e.memTTL)
	}
	return list, nil
}

func (e *Engine) acquire(ctx context.Context, videoID string) (*models.CommentList, bool) {
	var proxyProv *proxy.Provider
	if e.pool != nil && e.pool.Len() > 0 {
		if providers := e.pool.Select(time.Now()); len(providers) > 0 {
			proxyProv = providers[0]
		}
	}

	attempts := []acquisition.Attempt[[]string]{
		{Name: "downloader-direct", Run: func(c context.Context) ([]string, error) {
			return e.downloader.FetchComments(c, videoID, false, nil)
		}},
		{Name: "downloader-proxied", Run: func(c context.Context) ([]string, error) {
			return e.downloader.FetchComments(c, videoID, true, proxyProv)
		}},
		{Name: "ytdlp-direct", Run: func(c context.Context) ([]string, error) {
			return e.ytdlp.FetchComments(c, videoID, false, nil)
		}},
		{Name: "ytdlp-proxied", Run: func(c context.Context) ([]string, error) {
			return e.ytdlp.FetchComments(c, videoID, true, proxyProv)
		}},
	}

	comments, err, circuited := acquisition.RunSerial(ctx, attempts, func(c []string) bool { return len(c) > 0 }, isPermanentBlock)

	list := &models.CommentList{VideoID: videoID, Comments: comments}
	if circuited {
		list.Warning = "comment retrieval blocked: " + err.Error()
	} else if len(comments) == 0 && err != nil {
		list.Warning = "comment retrieval exhausted all strategies"
	}
	return list, circuited
}

func isPermanentBlock(err error) bool {
	_, ok := err.(*ErrPermanentBlock)
	return ok
}
