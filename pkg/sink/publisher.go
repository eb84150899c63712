// Package sink publishes finished datasets to Redis for downstream consumers.
// The store is write-only from the fetcher's point of view: a run never reads
// a previously published dataset back.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/horizons-fetch/pkg/dataset"
)

// Publisher writes datasets to Redis.
type Publisher struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewPublisher creates a publisher. A ttl of zero keeps the key indefinitely.
func NewPublisher(redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *Publisher {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Publisher{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// NewClient returns a lazily connecting client for addr, which is either
// host:port or a redis:// URL.
func NewClient(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// Publish stores g as JSON under key.
func (p *Publisher) Publish(ctx context.Context, key Key, g *dataset.Grid) error {
	if g == nil {
		return fmt.Errorf("dataset cannot be nil")
	}

	var buf bytes.Buffer
	if err := dataset.EmitJSON(&buf, g); err != nil {
		SinkWrites.WithLabelValues("error").Inc()
		return err
	}

	k := key.String()
	if err := p.redis.Set(ctx, k, buf.Bytes(), p.ttl).Err(); err != nil {
		SinkWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	SinkWrites.WithLabelValues("ok").Inc()
	SinkBytes.Set(float64(buf.Len()))

	p.logger.Info().
		Str("key", k).
		Int("bytes", buf.Len()).
		Dur("ttl", p.ttl).
		Msg("Dataset published")

	return nil
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.redis.Close()
}
