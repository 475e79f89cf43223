package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	viewStats     = "stats"
	viewPortfolio = "portfolio"
	viewDashboard = "dashboard"
	viewAnalytics = "analytics"

	analyticsGenerationKey = "gen:analytics"
	invalidateAttempts     = 3
)

func studentGenerationKey(studentID uint) string {
	return fmt.Sprintf("gen:student:%d", studentID)
}

func studentViewKey(view string, studentID uint, generation int64) string {
	return fmt.Sprintf("%s:student:%d:g%d", view, studentID, generation)
}

func analyticsViewKey(generation int64) string {
	return fmt.Sprintf("analytics:faculty:g%d", generation)
}

// AggregateCache stores recomputable aggregates under generation-stamped keys.
// A key must be resolved before the store is read: a mutation bumps the
// generation, so a result computed from older rows is written to a key no
// reader will ask for again.
type AggregateCache interface {
	StudentKey(ctx context.Context, view string, studentID uint) (string, error)
	AnalyticsKey(ctx context.Context) (string, error)
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	InvalidateStudent(ctx context.Context, studentID uint) error
}

type redisAggregateCache struct {
	client  *redis.Client
	ttl     time.Duration
	backoff time.Duration
	logger  zerolog.Logger
}

// NewAggregateCache returns a redis-backed cache, or nil when client is nil so
// read paths fall through to the store.
func NewAggregateCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) AggregateCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisAggregateCache{
		client:  client,
		ttl:     ttl,
		backoff: 50 * time.Millisecond,
		logger:  logger.With().Str("component", "aggregate_cache").Logger(),
	}
}

func (c *redisAggregateCache) StudentKey(ctx context.Context, view string, studentID uint) (string, error) {
	generation, err := c.generation(ctx, studentGenerationKey(studentID))
	if err != nil {
		return "", err
	}
	return studentViewKey(view, studentID, generation), nil
}

func (c *redisAggregateCache) AnalyticsKey(ctx context.Context) (string, error) {
	generation, err := c.generation(ctx, analyticsGenerationKey)
	if err != nil {
		return "", err
	}
	return analyticsViewKey(generation), nil
}

func (c *redisAggregateCache) generation(ctx context.Context, key string) (int64, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *redisAggregateCache) Get(ctx context.Context, key string, dest interface{}) bool {
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read aggregate cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}

	return true
}

func (c *redisAggregateCache) Set(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store aggregate cache")
	}
}

// InvalidateStudent bumps the student's generation and the analytics
// generation in one transaction, retrying transient failures.
func (c *redisAggregateCache) InvalidateStudent(ctx context.Context, studentID uint) error {
	var err error
	for attempt := 1; attempt <= invalidateAttempts; attempt++ {
		_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, studentGenerationKey(studentID))
			pipe.Incr(ctx, analyticsGenerationKey)
			return nil
		})
		if err == nil {
			return nil
		}

		c.logger.Warn().Err(err).Uint("student_id", studentID).Int("attempt", attempt).Msg("aggregate cache invalidation failed")
		if attempt == invalidateAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return fmt.Errorf("invalidate aggregates for student %d: %w", studentID, err)
}
