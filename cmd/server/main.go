// Package main implements the YouTube MCP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/youtube-transcript-mcp/internal/bootstrap"
	"github.com/youtube-transcript-mcp/internal/cache"
	"github.com/youtube-transcript-mcp/internal/config"
	"github.com/youtube-transcript-mcp/internal/health"
	"github.com/youtube-transcript-mcp/internal/mcp"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// Version information (set during build)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Global server state
type serverState struct {
	ready         atomic.Bool
	healthy       atomic.Bool
	healthChecker *health.Checker
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup structured logging
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Log startup information
	logger.Info("Starting YouTube Transcript MCP Server",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("git_commit", GitCommit),
		slog.String("go_version", runtime.Version()),
		slog.Int("port", cfg.Server.Port),
	)

	// Create cache instance
	cacheInstance := setupCache(cfg.Cache, logger)
	defer cacheInstance.Close()

	// Wire the proxy pool, two-tier cache, and transcript/comment engines
	engines, err := bootstrap.Build(cfg, cacheInstance, logger)
	if err != nil {
		log.Fatalf("Failed to build acquisition engines: %v", err)
	}
	defer engines.Persistent.Close()

	// Initialize MCP server, backed by the same engines as the HTTP routes
	mcpServer := mcp.NewServer(mcp.NewEngineAdapter(engines.Transcript, engines.Comment), cfg.MCP, logger)

	// Initialize health checker
	healthChecker := health.NewChecker(cacheInstance, engines.Pool)

	// Setup HTTP server
	srv := setupHTTPServer(cfg, mcpServer, engines, logger)

	// Periodically log proxy pool posture so cooldown churn is visible
	// without polling /health.
	proxyStatsCron := cron.New()
	proxyStatsCron.AddFunc("@every 5m", func() {
		logProxyPoolStats(engines.Pool, logger)
	})
	proxyStatsCron.Start()
	defer proxyStatsCron.Stop()

	// Server state for health checks
	state = &serverState{
		healthChecker: healthChecker,
	}

	// Setup signal handler
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server starting", slog.String("address", srv.Addr))
		state.healthy.Store(true)
		state.ready.Store(true)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Start periodic health checks
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				healthStatus := state.healthChecker.CheckHealth(ctx)
				cancel()

				// Update server state based on health checks
				state.healthy.Store(healthStatus.Status != "unhealthy")

				if healthStatus.Status != "healthy" {
					logger.Warn("Health check detected issues",
						slog.String("status", healthStatus.Status),
						slog.Any("checks", healthStatus.Checks))
				}
			case <-quit:
				return
			}
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-quit

	logger.Info("Shutting down server...")
	state.ready.Store(false)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Server exited gracefully")
}

// setupLogger configures structured logging
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.Level),
		AddSource: cfg.EnableCaller,
	}

	switch cfg.Output {
	case "stdout":
		if cfg.Format == "json" {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}
	case "stderr":
		if cfg.Format == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			handler = slog.NewTextHandler(os.Stderr, opts)
		}
	case "file":
		writer := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		if cfg.Format == "json" {
			handler = slog.NewJSONHandler(writer, opts)
		} else {
			handler = slog.NewTextHandler(writer, opts)
		}
	default:
		if cfg.Format == "json" {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}
	}

	return slog.New(handler)
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupCache creates cache instance based on configuration
func setupCache(cfg config.CacheConfig, logger *slog.Logger) cache.Cache {
	if !cfg.Enabled {
		logger.Info("Cache disabled")
		return cache.NewMemoryCache(0, 0, time.Hour) // Minimal cache
	}

	switch cfg.Type {
	case "memory":
		logger.Info("Using memory cache",
			slog.Int("max_size", cfg.MaxSize),
			slog.Int("max_memory_mb", cfg.MaxMemoryMB),
		)
		return cache.NewMemoryCache(cfg.MaxSize, cfg.MaxMemoryMB, cfg.CleanupInterval)
	case "redis":
		// Redis cache implementation would go here
		logger.Warn("Redis cache not implemented, falling back to memory cache")
		return cache.NewMemoryCache(cfg.MaxSize, cfg.MaxMemoryMB, cfg.CleanupInterval)
	default:
		logger.Warn("Unknown cache type, using memory cache", slog.String("type", cfg.Type))
		return cache.NewMemoryCache(cfg.MaxSize, cfg.MaxMemoryMB, cfg.CleanupInterval)
	}
}

// setupHTTPServer configures the HTTP server with middleware and routes
func setupHTTPServer(cfg *config.Config, mcpServer *mcp.Server, engines *bootstrap.Engines, logger *slog.Logger) *http.Server {
	router := chi.NewRouter()

	// Global middleware
	router.Use(requestIDMiddleware)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.ReadTimeout))

	// Custom middleware
	router.Use(loggingMiddleware(logger))

	if cfg.Server.EnableCORS {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
			MaxAge:           86400,
			AllowCredentials: false,
		}).Handler)
	}

	if cfg.Server.EnableGzip {
		router.Use(middleware.Compress(5))
	}

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Get("/ready", handleReady)
		r.Get("/version", handleVersion)
	})

	// MCP endpoints
	router.Route("/mcp", func(r chi.Router) {
		r.Post("/", mcpServer.HandleMCP)
	})

	// API endpoints (future expansion)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Stats endpoint
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			stats := mcpServer.GetStats()
			json.NewEncoder(w).Encode(stats)
		})
	})

	// Transcript and comment acquisition endpoints
	router.Get("/transcript", (&transcriptHandler{engine: engines.Transcript, logger: logger}).ServeHTTP)
	router.Get("/comments", (&commentsHandler{engine: engines.Comment, logger: logger}).ServeHTTP)

	// 404 handler
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Not found",
			"path":  r.URL.Path,
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

// Middleware functions

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("remote", r.RemoteAddr),
					slog.String("user_agent", r.UserAgent()),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// requestIDMiddleware stamps each request with a UUID, exposed via both
// the request context (chi's GetReqID) and an X-Request-ID response
// header so clients can correlate a response with server-side logs.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logProxyPoolStats reports how many configured providers are currently
// available vs. cooling down, run on a schedule rather than only on
// /health polls.
func logProxyPoolStats(pool *proxy.Pool, logger *slog.Logger) {
	if pool == nil || pool.Len() == 0 {
		return
	}
	now := time.Now()
	available := 0
	for _, p := range pool.Select(now) {
		if p.IsAvailable(now) {
			available++
		}
	}
	logger.Info("proxy pool status",
		slog.Int("configured_providers", pool.Len()),
		slog.Int("available_providers", available),
	)
}

// Handler functions

var state = &serverState{}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	// Perform health checks
	ctx := r.Context()
	healthStatus := state.healthChecker.CheckHealth(ctx)

	// Add version to response
	healthStatus.Version = Version

	// Determine status code
	statusCode := http.StatusOK
	if healthStatus.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	} else if healthStatus.Status == "degraded" {
		statusCode = http.StatusOK // Still return 200 for degraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(healthStatus)
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	// Check if service is ready
	isReady := state.healthChecker.IsReady()

	status := "ready"
	statusCode := http.StatusOK

	if !isReady || !state.ready.Load() {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

