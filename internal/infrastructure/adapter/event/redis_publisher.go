package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	eventport "github.com/amirhossein-jamali/imagegen/internal/domain/port/event"
)

// DefaultChannel is used when no channel is configured
const DefaultChannel = "imagegen.events"

// redisClient is the subset of *goredis.Client the publisher needs
type redisClient interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Close() error
}

// RedisConfig holds the Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisPublisher publishes generation events as JSON on a Redis pub/sub channel
type RedisPublisher struct {
	client  redisClient
	channel string
	logger  coreport.Logger
}

var _ eventport.Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher connects to Redis and verifies the connection with a ping
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, logger coreport.Logger) (*RedisPublisher, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisPublisher(rdb, cfg.Channel, logger), nil
}

func newRedisPublisher(client redisClient, channel string, logger coreport.Logger) *RedisPublisher {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger.With(map[string]any{"publisher": "redis", "channel": channel}),
	}
}

// Publish sends one event; delivery is fire-and-forget
func (p *RedisPublisher) Publish(ctx context.Context, evt eventport.GenerationEvent) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", evt.Type, err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, raw).Result()
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", evt.Type, err)
	}

	p.logger.Debug("Event published", map[string]any{
		"type":      string(evt.Type),
		"task_id":   evt.TaskID,
		"receivers": receivers,
	})
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
