package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// WebhookSeenPrefix is the key prefix for processed webhook event ids
	WebhookSeenPrefix = "webhook:seen:"

	// WebhookSeenTTL covers the gateway's retry window (3 days)
	WebhookSeenTTL = 72 * time.Hour
)

// Deduper remembers ids it has already been shown.
type Deduper interface {
	// FirstSeen records id and reports whether this is the first time it was seen.
	FirstSeen(ctx context.Context, id string) (bool, error)
	// Forget removes id so a later delivery is processed again.
	Forget(ctx context.Context, id string) error
}

type redisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewWebhookDeduper creates a Deduper backed by Redis SET NX.
func NewWebhookDeduper(client *redis.Client) Deduper {
	return &redisDeduper{client: client, prefix: WebhookSeenPrefix, ttl: WebhookSeenTTL}
}

func (d *redisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+id, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", id, err)
	}
	return ok, nil
}

func (d *redisDeduper) Forget(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, d.prefix+id).Err(); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	return nil
}

// NoopDeduper treats every id as new.
type NoopDeduper struct{}

func (NoopDeduper) FirstSeen(context.Context, string) (bool, error) { return true, nil }

func (NoopDeduper) Forget(context.Context, string) error { return nil }
