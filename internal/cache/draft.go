package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "draft:"

// draftKey namespaces a draft by session and flow so concurrent flows
// in one session never clobber each other.
func draftKey(sessionID, flow string) string {
	return draftKeyPrefix + sessionID + ":" + flow
}

// GetDraft retrieves a staged flow draft. Returns ErrCacheMiss when no
// draft exists or it has expired.
func (c *Cache) GetDraft(ctx context.Context, sessionID, flow string) ([]byte, error) {
	data, err := c.client.Get(ctx, draftKey(sessionID, flow)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	return data, nil
}

// SetDraft stores a staged flow draft with a TTL. Each write refreshes
// the TTL so an active multi-step session keeps its draft alive.
func (c *Cache) SetDraft(ctx context.Context, sessionID, flow string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, draftKey(sessionID, flow), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

// DeleteDraft discards a staged flow draft after materialization or
// user abandonment.
func (c *Cache) DeleteDraft(ctx context.Context, sessionID, flow string) error {
	if err := c.client.Del(ctx, draftKey(sessionID, flow)).Err(); err != nil {
		return fmt.Errorf("redis delete draft: %w", err)
	}
	return nil
}
