package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailroom/pkg/logger"
)

// PayloadField is the stream entry field holding the request body.
const PayloadField = "payload"

// StreamConfig configures a StreamConsumer.
type StreamConfig struct {
	Stream   string        `yaml:"stream" env:"INBOUND_STREAM"`
	Group    string        `yaml:"group" env:"INBOUND_GROUP"`
	Consumer string        `yaml:"consumer" env:"INBOUND_CONSUMER"`
	Block    time.Duration `yaml:"block" env:"INBOUND_BLOCK"`
	Count    int64         `yaml:"count" env:"INBOUND_COUNT"`
}

// DefaultStreamConfig returns the stream settings used when none are configured.
func DefaultStreamConfig() StreamConfig {
	host, _ := os.Hostname()
	if host == "" {
		host = "mailroom"
	}
	return StreamConfig{
		Stream:   "mailroom:enqueue_email",
		Group:    "mailroom",
		Consumer: host,
		Block:    5 * time.Second,
		Count:    10,
	}
}

// StreamClient is the subset of the Redis client used by StreamConsumer.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// StreamConsumer feeds a Redis stream consumer group into a Handler.
// Every entry is acknowledged after it was handled.
type StreamConsumer struct {
	client  StreamClient
	handler *Handler
	logger  *slog.Logger
	cfg     StreamConfig
	backoff time.Duration
}

// NewStreamConsumer creates a consumer. Zero fields of cfg take their defaults.
func NewStreamConsumer(client StreamClient, handler *Handler, cfg StreamConfig, l *slog.Logger) *StreamConsumer {
	def := DefaultStreamConfig()
	if cfg.Stream == "" {
		cfg.Stream = def.Stream
	}
	if cfg.Group == "" {
		cfg.Group = def.Group
	}
	if cfg.Consumer == "" {
		cfg.Consumer = def.Consumer
	}
	if cfg.Block <= 0 {
		cfg.Block = def.Block
	}
	if cfg.Count <= 0 {
		cfg.Count = def.Count
	}
	if l == nil {
		l = logger.NewNope()
	}
	return &StreamConsumer{client: client, handler: handler, logger: l, cfg: cfg, backoff: time.Second}
}

// Run consumes until ctx is cancelled.
func (c *StreamConsumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "waiting for emails to enqueue",
		slog.String("stream", c.cfg.Stream),
		slog.String("group", c.cfg.Group),
		slog.String("consumer", c.cfg.Consumer),
	)

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := c.Poll(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		default:
			c.logger.ErrorContext(ctx, "failed to read inbound stream", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
		}
		if n > 0 {
			c.logger.DebugContext(ctx, "inbound batch processed", slog.Int("count", n))
		}
	}
}

// Poll reads one batch, handles and acknowledges every message in it and
// returns the batch size.
func (c *StreamConsumer) Poll(ctx context.Context) (int, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.Count,
		Block:    c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("inbound: read stream %s: %w", c.cfg.Stream, err)
	}

	n := 0
	for _, s := range streams {
		for _, msg := range s.Messages {
			c.handle(ctx, msg)
			n++
		}
	}
	return n, nil
}

func (c *StreamConsumer) handle(ctx context.Context, msg redis.XMessage) {
	ctx = logger.WithMessageID(ctx, msg.ID)
	c.handler.Process(ctx, payload(msg), func(ctx context.Context) error {
		return c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err()
	})
}

// ensureGroup creates the consumer group at the start of the stream, so
// requests published before the first consumer ran are still delivered.
func (c *StreamConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("inbound: create consumer group %s: %w", c.cfg.Group, err)
	}
	return nil
}

func payload(msg redis.XMessage) []byte {
	switch v := msg.Values[PayloadField].(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	default:
		return nil
	}
}

// Publisher appends requests to the inbound stream.
type Publisher interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publish appends body to stream and returns the stream entry id.
func Publish(ctx context.Context, client Publisher, stream string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyPayload
	}
	if stream == "" {
		stream = DefaultStreamConfig().Stream
	}
	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{PayloadField: string(body)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("inbound: publish to %s: %w", stream, err)
	}
	return id, nil
}
