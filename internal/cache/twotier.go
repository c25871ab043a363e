package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/youtube-transcript-mcp/internal/models"
)

// record is the on-disk envelope for the persistent tier: it carries its
// own expiry so a negative marker's short TTL is enforced even though
// the embedded-KV and Redis backends don't share one TTL mechanism.
type record struct {
	Kind      string          `json:"kind"` // "transcript", "comments", "negative"
	Payload   json.RawMessage `json:"payload"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
}

func (r record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// TwoTier fronts a persistent key-value store with a bounded in-memory
// TTL cache, per CORE SPEC §4.6: read memory first, fall through to
// persistent on miss and promote; write persistent first, then memory.
type TwoTier struct {
	memory     Cache
	persistent PersistentStore
}

// NewTwoTier wires a memory tier and a persistent tier together.
func NewTwoTier(memory Cache, persistent PersistentStore) *TwoTier {
	return &TwoTier{memory: memory, persistent: persistent}
}

// GetTranscript reads the memory tier, then the persistent tier,
// promoting persistent hits into memory. Returns (payload, negative,
// found).
func (c *TwoTier) GetTranscript(ctx context.Context, key string, memTTL time.Duration) (*models.TranscriptPayload, bool, bool) {
	if v, ok := c.memory.Get(ctx, key); ok {
		switch val := v.(type) {
		case *models.TranscriptPayload:
			return val, false, true
		case *models.NegativeMarker:
			return nil, true, true
		}
	}

	raw, ok, err := c.persistent.Get(key)
	if err != nil || !ok {
		return nil, false, false
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, false
	}
	if rec.expired(time.Now()) {
		return nil, false, false
	}
	switch rec.Kind {
	case "negative":
		marker := &models.NegativeMarker{}
		_ = json.Unmarshal(rec.Payload, marker)
		c.memory.Set(ctx, key, marker, negativeMemTTL(rec, memTTL))
		return nil, true, true
	case "transcript":
		payload := &models.TranscriptPayload{}
		if err := json.Unmarshal(rec.Payload, payload); err != nil {
			return nil, false, false
		}
		c.memory.Set(ctx, key, payload, memTTL)
		return payload, false, true
	default:
		return nil, false, false
	}
}

// GetLegacyTranscript reads only the persistent tier under legacyKey,
// used for the default-English-path backward-compatibility read. It
// never writes the legacy key back.
func (c *TwoTier) GetLegacyTranscript(legacyKey string) (*models.TranscriptPayload, bool) {
	raw, ok, err := c.persistent.Get(legacyKey)
	if err != nil || !ok {
		return nil, false
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Kind != "transcript" {
		return nil, false
	}
	if rec.expired(time.Now()) {
		return nil, false
	}
	payload := &models.TranscriptPayload{}
	if err := json.Unmarshal(rec.Payload, payload); err != nil {
		return nil, false
	}
	return payload, true
}

// PutTranscript writes a successful transcript result to persistent
// first, then memory. The legacy key is never written here — only the
// transcript engine decides when a fetch used the default-English path.
func (c *TwoTier) PutTranscript(ctx context.Context, key string, payload *models.TranscriptPayload, memTTL time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	rec := record{Kind: "transcript", Payload: body}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := c.persistent.Set(key, raw); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, payload, memTTL)
}

// PutNegativeTranscript records "known unavailable" in both tiers with a
// short TTL.
func (c *TwoTier) PutNegativeTranscript(ctx context.Context, key, reason string, ttl time.Duration) error {
	marker := &models.NegativeMarker{Reason: reason}
	body, err := json.Marshal(marker)
	if err != nil {
		return err
	}
	rec := record{Kind: "negative", Payload: body, ExpiresAt: time.Now().Add(ttl)}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := c.persistent.Set(key, raw); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, marker, ttl)
}

// GetComments reads the memory tier, then persistent, promoting on hit.
// A confirmed permanent block is stored here too (via PutNegativeComments,
// same "comments" kind but with a short-lived ExpiresAt) — see DESIGN.md
// open question #2.
func (c *TwoTier) GetComments(ctx context.Context, key string, memTTL time.Duration) (*models.CommentList, bool) {
	if v, ok := c.memory.Get(ctx, key); ok {
		if val, ok := v.(*models.CommentList); ok {
			return val, true
		}
	}
	raw, ok, err := c.persistent.Get(key)
	if err != nil || !ok {
		return nil, false
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Kind != "comments" {
		return nil, false
	}
	if rec.expired(time.Now()) {
		return nil, false
	}
	list := &models.CommentList{}
	if err := json.Unmarshal(rec.Payload, list); err != nil {
		return nil, false
	}
	c.memory.Set(ctx, key, list, memTTL)
	return list, true
}

// PutComments writes a successful comment list to persistent, then
// memory.
func (c *TwoTier) PutComments(ctx context.Context, key string, list *models.CommentList, memTTL time.Duration) error {
	body, err := json.Marshal(list)
	if err != nil {
		return err
	}
	rec := record{Kind: "comments", Payload: body}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := c.persistent.Set(key, raw); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, list, memTTL)
}

// PutNegativeComments records a known-empty comment result (a confirmed
// permanent block) with a short TTL, so the next request within the TTL
// window skips the fallback chain instead of retrying a block that won't
// have cleared yet.
func (c *TwoTier) PutNegativeComments(ctx context.Context, key string, list *models.CommentList, ttl time.Duration) error {
	body, err := json.Marshal(list)
	if err != nil {
		return err
	}
	rec := record{Kind: "comments", Payload: body, ExpiresAt: time.Now().Add(ttl)}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := c.persistent.Set(key, raw); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, list, ttl)
}

func negativeMemTTL(rec record, fallback time.Duration) time.Duration {
	remaining := time.Until(rec.ExpiresAt)
	if remaining <= 0 {
		return fallback
	}
	return remaining
}
