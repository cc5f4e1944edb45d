package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// InitRedis connects to Redis when REDIS_ADDR is set. A failed ping returns
// nil so caching is simply disabled.
func InitRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis, inbox caching disabled")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	return client
}

// InboxCache stores rendered owner inboxes under inbox:<ownerID> and a
// counter under inbox:gen:<ownerID> that every invalidation increments.
type InboxCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewInboxCache(client *redis.Client, ttl time.Duration) *InboxCache {
	return &InboxCache{client: client, ttl: ttl}
}

var errStaleInbox = errors.New("inbox generation changed")

func inboxKey(ownerID string) string {
	return "inbox:" + ownerID
}

func generationKey(ownerID string) string {
	return "inbox:gen:" + ownerID
}

func generationOf(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Get decodes the cached inbox into dest. found is false on a miss.
func (c *InboxCache) Get(ctx context.Context, ownerID string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, inboxKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *InboxCache) Generation(ctx context.Context, ownerID string) (int64, error) {
	return generationOf(c.client.Get(ctx, generationKey(ownerID)))
}

// SetIfCurrent caches value only while the owner's generation still equals
// generation. A concurrent invalidation aborts the write silently.
func (c *InboxCache) SetIfCurrent(ctx context.Context, ownerID string, generation int64, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	genKey := generationKey(ownerID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleInbox
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, inboxKey(ownerID), b, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errStaleInbox) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the generation and drops the cached inbox in one
// transaction.
func (c *InboxCache) Invalidate(ctx context.Context, ownerID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(ownerID))
		pipe.Del(ctx, inboxKey(ownerID))
		return nil
	})
	return err
}
