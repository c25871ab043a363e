// Package singleflight guarantees at most one concurrent acquisition per
// cache key: the first requester becomes leader and runs the real work,
// later requesters wait on the leader's result instead of duplicating
// the (rate-limited, slow) upstream call.
package singleflight

import (
	"sync"
	"time"
)

// entry is the in-flight marker for one key: a one-shot signal closed by
// the leader on completion.
type entry struct {
	done chan struct{}
}

// Coordinator is a mapping from cache key to in-flight entry, guarded by
// a single mutex. One Coordinator instance is shared per domain
// (transcripts, comments), as the concurrency model requires.
type Coordinator struct {
	mu       sync.Mutex
	inflight map[string]*entry
}

// New builds an empty coordinator.
func New() *Coordinator {
	return &Coordinator{inflight: make(map[string]*entry)}
}

// Join registers interest in key. If no acquisition is in flight, the
// caller becomes leader and must call the returned release func exactly
// once when done (success, negative, or error) — this signals any
// waiting followers and removes the entry so a later miss can start a
// fresh acquisition. If an acquisition is already in flight, Join
// returns a waitFn the caller uses to block (with a bound) until the
// leader finishes.
func (c *Coordinator) Join(key string) (leader bool, waitFn func(timeout time.Duration) bool, release func()) {
	c.mu.Lock()
	if e, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return false, func(timeout time.Duration) bool {
			t := time.NewTimer(timeout)
			defer t.Stop()
			select {
			case <-e.done:
				return true
			case <-t.C:
				return false
			}
		}, nil
	}

	e := &entry{done: make(chan struct{})}
	c.inflight[key] = e
	c.mu.Unlock()

	var once sync.Once
	release = func() {
		once.Do(func() {
			c.mu.Lock()
			if c.inflight[key] == e {
				delete(c.inflight, key)
			}
			c.mu.Unlock()
			close(e.done)
		})
	}
	return true, nil, release
}

// InflightCount reports the number of keys currently being acquired,
// for diagnostics/health reporting.
func (c *Coordinator) InflightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
