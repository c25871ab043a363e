// Package transcript implements the transcript acquisition strategies
// (primary watch-page API, timedtext, yt-dlp-style) and the engine that
// orchestrates them behind a shared cache and single-flight coordinator.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/cache"
	"github.com/youtube-transcript-mcp/internal/identifier"
	"github.com/youtube-transcript-mcp/internal/language"
	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/proxy"
	"github.com/youtube-transcript-mcp/internal/singleflight"
)

// Engine wires the identifier normalizer, language resolver, two-tier
// cache, single-flight coordinator, proxy pool, and the three adapters
// into the two-stage acquisition flow: a serial proxy-rotated loop over
// the primary adapter, then — only if that fails entirely — a
// direct-only parallel race between timedtext and the yt-dlp-style
// adapter under a fixed deadline.
type Engine struct {
	pool      *proxy.Pool
	cache     *cache.TwoTier
	coord     *singleflight.Coordinator
	primary   acquisition.TranscriptAdapter
	timedtext acquisition.TranscriptAdapter
	ytdlp     acquisition.TranscriptAdapter

	memTTL          time.Duration
	negativeTTL     time.Duration
	parallelTimeout time.Duration
	coalesceWait    time.Duration
	defaultLangs    []string
}

// NewEngine builds a transcript engine from its collaborators.
func NewEngine(
	pool *proxy.Pool,
	c *cache.TwoTier,
	coord *singleflight.Coordinator,
	primary, timedtext, ytdlp acquisition.TranscriptAdapter,
	memTTL, negativeTTL, parallelTimeout, coalesceWait time.Duration,
	defaultLangs []string,
) *Engine {
	return &Engine{
		pool: pool, cache: c, coord: coord,
		primary: primary, timedtext: timedtext, ytdlp: ytdlp,
		memTTL: memTTL, negativeTTL: negativeTTL,
		parallelTimeout: parallelTimeout, coalesceWait: coalesceWait,
		defaultLangs: defaultLangs,
	}
}

// FetchTranscript resolves a video identifier and language preference,
// consults the cache (including the read-only legacy key for the
// default-language path), coalesces concurrent identical requests, and
// falls through to live acquisition on a cold miss.
func (e *Engine) FetchTranscript(ctx context.Context, rawVideoID string, callerLangs []string, acceptLanguage string, opts acquisition.Options) (*models.TranscriptPayload, error) {
	vid, err := identifier.Normalize(rawVideoID)
	if err != nil {
		return nil, &acquisition.ErrInvalidID{Input: rawVideoID}
	}
	languages := language.Resolve(callerLangs, acceptLanguage, e.defaultLangs)
	defaultPath := isDefaultPath(languages, opts, e.defaultLangs)
	key := cacheKey(string(vid), languages, defaultPath)

	if payload, negative, found := e.cache.GetTranscript(ctx, key, e.memTTL); found {
		if negative {
			return nil, acquisition.ErrNoTranscriptFound
		}
		return payload, nil
	}

	if defaultPath {
		if payload, ok := e.cache.GetLegacyTranscript(string(vid)); ok {
			return payload, nil
		}
	}

	leader, waitFn, release := e.coord.Join(key)
	if !leader {
		if waitFn(e.coalesceWait) {
			if payload, negative, found := e.cache.GetTranscript(ctx, key, e.memTTL); found {
				if negative {
					return nil, acquisition.ErrNoTranscriptFound
				}
				return payload, nil
			}
		}
		return nil, &acquisition.AdapterError{Kind: acquisition.KindOrchestratorTimeout, Adapter: "engine", Reason: "coalesced wait timed out"}
	}
	defer release()

	payload, err := e.acquire(ctx, string(vid), languages, opts)
	if err != nil {
		if isTerminal(err) {
			_ = e.cache.PutNegativeTranscript(ctx, key, err.Error(), e.negativeTTL)
		}
		return nil, err
	}
	_ = e.cache.PutTranscript(ctx, key, payload, e.memTTL)
	return payload, nil
}

func (e *Engine) acquire(ctx context.Context, videoID string, languages []string, opts acquisition.Options) (*models.TranscriptPayload, error) {
	if payload, err := e.acquireViaProxyRotation(ctx, videoID, languages, opts); err == nil {
		return payload, nil
	}

	parallelCtx, cancel := context.WithTimeout(ctx, e.parallelTimeout)
	defer cancel()

	attempts := []acquisition.Attempt[*models.TranscriptPayload]{
		{Name: e.timedtext.Name(), Run: func(c context.Context) (*models.TranscriptPayload, error) {
			return e.timedtext.FetchTranscript(c, videoID, languages, opts, nil)
		}},
		{Name: e.ytdlp.Name(), Run: func(c context.Context) (*models.TranscriptPayload, error) {
			return e.ytdlp.FetchTranscript(c, videoID, languages, opts, nil)
		}},
	}
	result, err := acquisition.RunParallelFirst(parallelCtx, attempts, nonEmptyPayload)
	if err != nil {
		return nil, acquisition.ErrNoTranscriptFound
	}
	return result, nil
}

// acquireViaProxyRotation runs CORE SPEC's stage 1: the primary adapter,
// retried ATTEMPTS_PER_PROVIDER times per provider, walking providers in
// the pool's current selection order. With no providers configured it
// falls back to a single direct attempt.
func (e *Engine) acquireViaProxyRotation(ctx context.Context, videoID string, languages []string, opts acquisition.Options) (*models.TranscriptPayload, error) {
	if e.pool == nil || e.pool.Len() == 0 {
		return e.primary.FetchTranscript(ctx, videoID, languages, opts, nil)
	}

	var lastErr error
	for _, prov := range e.pool.Select(time.Now()) {
		for attempt := 0; attempt < e.pool.AttemptsPerProvider; attempt++ {
			attemptCtx, cancel := context.WithTimeout(ctx, e.pool.AttemptTimeout)
			payload, err := e.primary.FetchTranscript(attemptCtx, videoID, languages, opts, prov)
			cancel()

			if err == nil && payload != nil && payload.Text != "" {
				prov.RecordSuccess()
				return payload, nil
			}
			lastErr = err
			blocked := prov.RecordFailure(e.pool.FailureThreshold, e.pool.Cooldown(), time.Now())
			if adapterErr, ok := err.(*acquisition.AdapterError); ok && adapterErr.Kind == acquisition.KindUpstreamBlocked {
				break // a confirmed block won't clear on immediate retry
			}
			if blocked {
				break
			}
		}
	}
	if lastErr == nil {
		lastErr = acquisition.ErrNoTranscriptFound
	}
	return nil, lastErr
}

func nonEmptyPayload(p *models.TranscriptPayload) bool {
	return p != nil && p.Text != ""
}

// isTerminal decides whether a failure should be negative-cached: a
// confirmed absence of content or a confirmed block is stable enough to
// remember briefly; other kinds are not. acquire reports every failed
// acquisition, including a parallel stage that ran out of time, as
// ErrNoTranscriptFound (KindNoContent), so each of those is negative-cached.
func isTerminal(err error) bool {
	adapterErr, ok := err.(*acquisition.AdapterError)
	if !ok {
		return false
	}
	return adapterErr.Kind == acquisition.KindNoContent || adapterErr.Kind == acquisition.KindUpstreamBlocked
}

// isDefaultPath reports whether this request used the configured default
// language list and default options verbatim, the only case where the
// pre-migration legacy cache key is eligible for a read.
func isDefaultPath(languages []string, opts acquisition.Options, defaults []string) bool {
	if opts != acquisition.DefaultOptions() {
		return false
	}
	bases := baseLanguages(languages)
	if len(bases) != len(defaults) {
		return false
	}
	for i := range bases {
		if !strings.EqualFold(bases[i], defaults[i]) {
			return false
		}
	}
	return true
}

// cacheKey is the bare video id on the default English-first path (so it
// lines up with the legacy key other processes may have written), or
// "<video_id>::langs=<csv of base codes>" otherwise. Option flags never
// enter the key: they steer acquisition, not cache identity.
func cacheKey(videoID string, languages []string, defaultPath bool) string {
	if defaultPath {
		return videoID
	}
	bases := baseLanguages(languages)
	return fmt.Sprintf("%s::langs=%s", videoID, strings.Join(bases, ","))
}
