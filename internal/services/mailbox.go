package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schemadesign/glassjournal-backend/internal/database"
)

const (
	// FlashKeyPrefix is the Redis key prefix for one-shot status messages.
	FlashKeyPrefix = "flash:"
	// DefaultFlashTTL keeps a status message alive just long enough to
	// survive the redirect back to the page that renders it.
	DefaultFlashTTL = 5 * time.Second
)

// StatusMailbox passes one-shot status strings across a redirect boundary.
// At most one unread message exists per key; a second write overwrites the
// first, and reading removes the message. Client overrides the shared Redis
// connection when set.
type StatusMailbox struct {
	Client redis.Cmdable
}

func (m *StatusMailbox) client() redis.Cmdable {
	if m.Client != nil {
		return m.Client
	}
	return database.RedisClient
}

// Set stores message under key with the given TTL (DefaultFlashTTL if zero).
func (m *StatusMailbox) Set(ctx context.Context, key, message string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultFlashTTL
	}
	return m.client().Set(ctx, FlashKeyPrefix+key, message, ttl).Err()
}

// TakeAndClear atomically reads and deletes the message for key. Returns ""
// when no unexpired message exists. GETDEL guarantees a concurrent duplicate
// read never observes the same message twice.
func (m *StatusMailbox) TakeAndClear(ctx context.Context, key string) (string, error) {
	message, err := m.client().GetDel(ctx, FlashKeyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return message, nil
}

// Global mailbox instance
var Mailbox = &StatusMailbox{}
