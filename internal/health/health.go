// Package health performs periodic and on-demand health checks against
// the cache, the proxy pool, and outbound network reachability.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/youtube-transcript-mcp/internal/cache"
	"github.com/youtube-transcript-mcp/internal/identifier"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// Checker performs health checks on various system components
type Checker struct {
	cache  cache.Cache
	pool   *proxy.Pool
	mu     sync.RWMutex
	checks map[string]CheckResult
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	TotalMS   int64                  `json:"total_ms"`
}

// NewChecker creates a new health checker. pool may be nil when no proxy
// providers are configured, in which case the proxy check reports
// healthy-by-definition (there is nothing to cool down).
func NewChecker(c cache.Cache, pool *proxy.Pool) *Checker {
	return &Checker{
		cache:  c,
		pool:   pool,
		checks: make(map[string]CheckResult),
	}
}

// CheckHealth performs all health checks
func (c *Checker) CheckHealth(ctx context.Context) *HealthStatus {
	start := time.Now()

	var wg sync.WaitGroup
	checkFuncs := map[string]func(context.Context) CheckResult{
		"cache":      c.checkCache,
		"proxy_pool": c.checkProxyPool,
		"network":    c.checkNetwork,
		"identifier": c.checkIdentifier,
	}

	results := make(map[string]CheckResult)
	var mu sync.Mutex

	for name, checkFunc := range checkFuncs {
		wg.Add(1)
		go func(name string, fn func(context.Context) CheckResult) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := fn(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checkFunc)
	}

	wg.Wait()

	c.mu.Lock()
	c.checks = results
	c.mu.Unlock()

	overallStatus := "healthy"
	for _, result := range results {
		if result.Status == "unhealthy" {
			overallStatus = "unhealthy"
			break
		} else if result.Status == "degraded" && overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	}

	return &HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Checks:    results,
		TotalMS:   time.Since(start).Milliseconds(),
	}
}

// checkCache verifies the cache is working
func (c *Checker) checkCache(ctx context.Context) CheckResult {
	start := time.Now()

	testKey := "_health_check_test"
	testValue := time.Now().UnixNano()

	if err := c.cache.Set(ctx, testKey, testValue, 1*time.Minute); err != nil {
		return CheckResult{
			Status:    "unhealthy",
			Message:   fmt.Sprintf("Failed to set cache value: %v", err),
			Timestamp: time.Now().UTC(),
			Details: map[string]interface{}{
				"operation":  "set",
				"latency_ms": time.Since(start).Milliseconds(),
			},
		}
	}

	value, found := c.cache.Get(ctx, testKey)
	if !found {
		return CheckResult{
			Status:    "unhealthy",
			Message:   "Failed to retrieve cached value",
			Timestamp: time.Now().UTC(),
			Details: map[string]interface{}{
				"operation":  "get",
				"latency_ms": time.Since(start).Milliseconds(),
			},
		}
	}

	if retrievedValue, ok := value.(int64); !ok || retrievedValue != testValue {
		return CheckResult{
			Status:    "unhealthy",
			Message:   "Cache returned incorrect value",
			Timestamp: time.Now().UTC(),
			Details: map[string]interface{}{
				"expected":   testValue,
				"actual":     value,
				"latency_ms": time.Since(start).Milliseconds(),
			},
		}
	}

	c.cache.Delete(ctx, testKey)
	size := c.cache.Size(ctx)

	return CheckResult{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Details: map[string]interface{}{
			"cache_size": size,
			"latency_ms": time.Since(start).Milliseconds(),
		},
	}
}

// checkProxyPool reports degraded when every configured provider is
// currently cooling down — acquisition still works (the rotation policy
// falls back to the soonest-recovering provider) but at a reduced
// success rate worth surfacing.
func (c *Checker) checkProxyPool(_ context.Context) CheckResult {
	if c.pool == nil || c.pool.Len() == 0 {
		return CheckResult{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Details:   map[string]interface{}{"configured_providers": 0},
		}
	}

	now := time.Now()
	available := c.pool.Select(now)
	healthyCount := 0
	for _, p := range available {
		if p.IsAvailable(now) {
			healthyCount++
		}
	}

	status := "healthy"
	message := ""
	if healthyCount == 0 {
		status = "degraded"
		message = "all proxy providers are cooling down; falling back to soonest-recovering provider"
	}

	return CheckResult{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details: map[string]interface{}{
			"configured_providers": c.pool.Len(),
			"available_providers":  healthyCount,
		},
	}
}

// checkIdentifier exercises the video-ID normalizer against a known-good
// ID, catching a regressed regex without making any network calls.
func (c *Checker) checkIdentifier(_ context.Context) CheckResult {
	start := time.Now()
	const testVideoID = "dQw4w9WgXcQ"

	if _, err := identifier.Normalize(testVideoID); err != nil {
		return CheckResult{
			Status:    "unhealthy",
			Message:   fmt.Sprintf("identifier normalization regressed: %v", err),
			Timestamp: time.Now().UTC(),
			Details:   map[string]interface{}{"latency_ms": time.Since(start).Milliseconds()},
		}
	}

	return CheckResult{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Details:   map[string]interface{}{"latency_ms": time.Since(start).Milliseconds()},
	}
}

// checkNetwork verifies basic network connectivity
func (c *Checker) checkNetwork(ctx context.Context) CheckResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "HEAD", "https://www.youtube.com", nil)
	if err != nil {
		return CheckResult{
			Status:    "unhealthy",
			Message:   fmt.Sprintf("Failed to create request: %v", err),
			Timestamp: time.Now().UTC(),
		}
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return CheckResult{
			Status:    "unhealthy",
			Message:   fmt.Sprintf("Network check failed: %v", err),
			Timestamp: time.Now().UTC(),
			Details: map[string]interface{}{
				"latency_ms": time.Since(start).Milliseconds(),
			},
		}
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()
	status := "healthy"
	message := ""

	if resp.StatusCode >= 400 {
		status = "degraded"
		message = fmt.Sprintf("YouTube returned status %d", resp.StatusCode)
	} else if latency > 3000 {
		status = "degraded"
		message = "High network latency"
	}

	return CheckResult{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details: map[string]interface{}{
			"status_code": resp.StatusCode,
			"latency_ms":  latency,
		},
	}
}

// IsHealthy returns true if all checks are passing
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, check := range c.checks {
		if check.Status == "unhealthy" {
			return false
		}
	}
	return true
}

// IsReady returns true if the service is ready to handle requests
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if cacheCheck, ok := c.checks["cache"]; ok {
		return cacheCheck.Status == "healthy"
	}
	return false
}
