package identitywebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const provider = "identity"

type replayStore interface {
	WebhookKey(provider, messageID string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// ReplayGuard deduplicates webhook deliveries. Svix retries aggressively,
// so the same message id can arrive several times inside the TTL window.
type ReplayGuard struct {
	store replayStore
	ttl   time.Duration
}

func NewReplayGuard(store replayStore, ttl time.Duration) (*ReplayGuard, error) {
	if store == nil {
		return nil, errors.New("replay store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &ReplayGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether the message was seen before, claiming it
// atomically when it was not.
func (g *ReplayGuard) CheckAndMark(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, errors.New("message id is required")
	}
	key := g.store.WebhookKey(provider, messageID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set replay key: %w", err)
	}
	return !set, nil
}

// Forget releases a claimed message id so a retry can be processed after
// a handler failure.
func (g *ReplayGuard) Forget(ctx context.Context, messageID string) error {
	if messageID == "" {
		return errors.New("message id is required")
	}
	return g.store.Del(ctx, g.store.WebhookKey(provider, messageID))
}
