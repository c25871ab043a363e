// Package proxy implements the ordered provider pool: failure counting,
// cooldown accounting, and the "available first, else soonest-recovering"
// selection policy described in the transcript acquisition spec.
package proxy

import (
	"sort"
	"sync"
	"time"
)

// Provider is one proxy endpoint in the pool. All mutable fields are
// guarded by mu; state transitions are linearizable per provider.
type Provider struct {
	Name        string
	Display     string
	ProxyHandle string // opaque handle: a URL, or a gateway identifier

	mu            sync.Mutex
	failureCount  int
	cooldownUntil time.Time
}

// NewProvider constructs a provider in the HEALTHY state.
func NewProvider(name, display, proxyHandle string) *Provider {
	return &Provider{Name: name, Display: display, ProxyHandle: proxyHandle}
}

// IsAvailable reports whether the provider's cooldown has elapsed.
func (p *Provider) IsAvailable(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !now.Before(p.cooldownUntil) || p.cooldownUntil.IsZero()
}

// CooldownUntil returns the provider's current cooldown deadline (zero
// value if not cooling).
func (p *Provider) CooldownUntil() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cooldownUntil
}

// RecordSuccess resets failure accounting and clears any cooldown.
func (p *Provider) RecordSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failureCount = 0
	p.cooldownUntil = time.Time{}
}

// RecordFailure increments the failure counter and, once it reaches
// threshold, enters cooldown and resets the counter. Returns whether the
// provider just entered cooldown.
func (p *Provider) RecordFailure(threshold int, cooldown time.Duration, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failureCount++
	if p.failureCount >= threshold {
		p.cooldownUntil = now.Add(cooldown)
		p.failureCount = 0
		return true
	}
	return false
}

// Pool is the fixed ordered sequence of providers configured at startup.
// Selection is a pure function of (providers, now); membership never
// changes after construction.
type Pool struct {
	providers []*Provider

	FailureThreshold int
	CooldownSeconds  int
	AttemptsPerProvider int
	AttemptTimeout      time.Duration
}

// NewPool builds a pool from an ordered provider list plus policy
// parameters.
func NewPool(providers []*Provider, failureThreshold, attemptsPerProvider, cooldownSeconds int, attemptTimeout time.Duration) *Pool {
	return &Pool{
		providers:           providers,
		FailureThreshold:    failureThreshold,
		CooldownSeconds:     cooldownSeconds,
		AttemptsPerProvider: attemptsPerProvider,
		AttemptTimeout:      attemptTimeout,
	}
}

// Len reports the number of configured providers.
func (p *Pool) Len() int { return len(p.providers) }

// Select returns providers in attempt order for this call: available
// ones in their configured order, or — if none are available — every
// provider sorted by soonest-recovering cooldown (one bypass attempt per
// call).
func (p *Pool) Select(now time.Time) []*Provider {
	if len(p.providers) == 0 {
		return nil
	}
	var available []*Provider
	for _, prov := range p.providers {
		if prov.IsAvailable(now) {
			available = append(available, prov)
		}
	}
	if len(available) > 0 {
		return available
	}

	all := make([]*Provider, len(p.providers))
	copy(all, p.providers)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CooldownUntil().Before(all[j].CooldownUntil())
	})
	return all
}

// Cooldown returns the configured cooldown duration.
func (p *Pool) Cooldown() time.Duration {
	return time.Duration(p.CooldownSeconds) * time.Second
}
