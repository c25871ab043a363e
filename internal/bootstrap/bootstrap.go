// Package bootstrap wires the acquisition engines (proxy pool, two-tier
// cache, single-flight coordinators, adapters) from configuration. Both
// the HTTP server and the stdio MCP binary share this construction so
// the two entrypoints never drift on how the engines are assembled.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/youtube-transcript-mcp/internal/cache"
	"github.com/youtube-transcript-mcp/internal/comment"
	"github.com/youtube-transcript-mcp/internal/config"
	"github.com/youtube-transcript-mcp/internal/proxy"
	"github.com/youtube-transcript-mcp/internal/singleflight"
	"github.com/youtube-transcript-mcp/internal/transcript"
)

// Engines bundles everything an entrypoint needs to serve transcript and
// comment requests, plus the proxy pool for health reporting.
type Engines struct {
	Transcript *transcript.Engine
	Comment    *comment.Engine
	Pool       *proxy.Pool
	Persistent cache.PersistentStore
}

// Build assembles the proxy pool, persistent store, and both acquisition
// engines from cfg. memCache is the already-constructed in-memory tier
// (each entrypoint configures its own memory-cache sizing).
func Build(cfg *config.Config, memCache cache.Cache, logger *slog.Logger) (*Engines, error) {
	pool := buildProxyPool(cfg.Proxy)

	persistent, err := buildPersistentStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open persistent store: %w", err)
	}
	twoTier := cache.NewTwoTier(memCache, persistent)

	transcriptTimeout := cfg.YouTube.RequestTimeout
	primary := transcript.NewPrimaryAdapter(transcriptTimeout)
	timedtext := transcript.NewTimedtextAdapter(transcriptTimeout)
	ytdlp := transcript.NewYtDlpAdapter(transcriptTimeout)

	transcriptEngine := transcript.NewEngine(
		pool, twoTier, singleflight.New(),
		primary, timedtext, ytdlp,
		cfg.Cache.TranscriptTTL, cfg.Cache.ErrorTTL,
		cfg.Acquisition.ParallelFallbackTimeout, cfg.Acquisition.CoalesceWaitTimeout,
		cfg.YouTube.DefaultLanguages,
	)

	downloader := comment.NewDownloaderAdapter(transcriptTimeout, cfg.Acquisition.CommentMaxFetch, cfg.Acquisition.CommentLimit)
	ytdlpComments := comment.NewYtDlpCommentAdapter(transcriptTimeout, cfg.Acquisition.CommentMaxFetch, cfg.Acquisition.CommentLimit)

	commentEngine := comment.NewEngine(
		pool, twoTier, singleflight.New(),
		downloader, ytdlpComments,
		cfg.Cache.MetadataTTL, cfg.Cache.ErrorTTL, cfg.Acquisition.CoalesceWaitTimeout,
	)

	logger.Info("acquisition engines ready",
		slog.Int("proxy_providers", pool.Len()),
		slog.String("persistent_backend", cfg.Persistent.Backend),
	)

	return &Engines{Transcript: transcriptEngine, Comment: commentEngine, Pool: pool, Persistent: persistent}, nil
}

func buildProxyPool(cfg config.ProxyConfig) *proxy.Pool {
	handles := config.ParseProxyProviderHandles(cfg.ProviderHandles)
	providers := make([]*proxy.Provider, 0, len(handles))
	for _, h := range handles {
		providers = append(providers, proxy.NewProvider(h[0], h[0], h[1]))
	}
	return proxy.NewPool(providers, cfg.FailureThreshold, cfg.AttemptsPerProvider, cfg.CooldownSeconds, cfg.AttemptTimeout)
}

func buildPersistentStore(cfg *config.Config, logger *slog.Logger) (cache.PersistentStore, error) {
	switch cfg.Persistent.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			PoolSize: cfg.Cache.RedisPoolSize,
		})
		logger.Info("using redis persistent store", slog.String("addr", cfg.Cache.RedisURL))
		return cache.NewRedisStore(client, "acquisition:"), nil
	default:
		logger.Info("using pudge persistent store", slog.String("path", cfg.Persistent.PudgePath))
		return cache.NewPudgeStore(cfg.Persistent.PudgePath)
	}
}
