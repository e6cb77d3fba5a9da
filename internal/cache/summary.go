package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

const (
	summaryKeyPrefix  = "kpi:summary"
	defaultSummaryTTL = 5 * time.Minute
	// keys unlinked per round trip during invalidation
	invalidateBatch = 100
)

// SummaryCache stores serialized KPI summaries per status filter. A summary is only
// valid until the next load into the store.
type SummaryCache interface {
	GetSummary(ctx context.Context, status string) (*domain.KPISummary, bool, error)
	SetSummary(ctx context.Context, status string, summary *domain.KPISummary) error
	InvalidateAll(ctx context.Context) error
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSummaryCache struct{}

// NewSummaryCache connects to redis when caching is enabled and falls back to a cache
// that never hits otherwise.
func NewSummaryCache(cfg config.CacheConfig) (SummaryCache, error) {
	if !cfg.Enabled {
		return &noopSummaryCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.SummaryTTL()
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}

	return &redisSummaryCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// redisOptions prefers REDIS_URL over the host/port settings.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func NewNoopSummaryCache() SummaryCache {
	return &noopSummaryCache{}
}

func (c *redisSummaryCache) GetSummary(ctx context.Context, status string) (*domain.KPISummary, bool, error) {
	payload, err := c.client.Get(ctx, buildSummaryKey(status)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.KPISummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode kpi summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisSummaryCache) SetSummary(ctx context.Context, status string, summary *domain.KPISummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode kpi summary cache: %w", err)
	}

	if err := c.client.Set(ctx, buildSummaryKey(status), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// InvalidateAll drops every cached summary after a load into the store.
func (c *redisSummaryCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, summaryKeyPrefix+":*", invalidateBatch).Iterator()

	batch := make([]string, 0, invalidateBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == invalidateBatch {
			if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis unlink failed: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}

	if len(batch) > 0 {
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink failed: %w", err)
		}
	}
	return nil
}

func (n *noopSummaryCache) GetSummary(ctx context.Context, status string) (*domain.KPISummary, bool, error) {
	return nil, false, nil
}

func (n *noopSummaryCache) SetSummary(ctx context.Context, status string, summary *domain.KPISummary) error {
	return nil
}

func (n *noopSummaryCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildSummaryKey hashes the status, which is free text from the source file.
func buildSummaryKey(status string) string {
	if status == "" {
		return summaryKeyPrefix + ":all"
	}
	hash := sha1.Sum([]byte(status))
	return fmt.Sprintf("%s:%s", summaryKeyPrefix, hex.EncodeToString(hash[:]))
}
