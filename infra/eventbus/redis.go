package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBusConfig holds the stream names used by RedisEventBus.
type RedisEventBusConfig struct {
	Stream string
	Group  string
}

// DefaultRedisEventBusConfig returns the default stream configuration.
func DefaultRedisEventBusConfig() *RedisEventBusConfig {
	return &RedisEventBusConfig{Stream: "bankledger.events", Group: "bankledger"}
}

// RedisEventBus publishes events to a Redis stream and consumes them with a
// consumer group. Failed messages go to "<stream>-DLQ".
type RedisEventBus struct {
	client *redis.Client
	stream string
	group  string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a new Redis-backed event bus.
func NewWithRedis(url string, logger *slog.Logger, config *RedisEventBusConfig) (*RedisEventBus, error) {
	if url == "" {
		return nil, fmt.Errorf("redis event bus: url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	return NewWithRedisClient(redis.NewClient(opt), logger, config)
}

// NewWithRedisClient wraps an existing client.
func NewWithRedisClient(client *redis.Client, logger *slog.Logger, config *RedisEventBusConfig) (*RedisEventBus, error) {
	if config == nil {
		config = DefaultRedisEventBusConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	err := client.XGroupCreateMkStream(ctx, config.Stream, config.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		cancel()
		return nil, fmt.Errorf("redis event bus: create group: %w", err)
	}
	return &RedisEventBus{
		client: client,
		stream: config.Stream,
		group:  config.Group,
		logger: logger.With("bus", "redis"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Emit publishes an event to the Redis stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	data, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	_, err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(data)},
	}).Result()
	if err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register starts a consumer in the group that runs handler for every
// message of eventType. Messages of other types are acknowledged by the
// consumer registered for them.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	group := b.group + "." + eventType.String()
	if err := b.client.XGroupCreateMkStream(b.ctx, b.stream, group, "$").Err(); err != nil && !isBusyGroup(err) {
		b.logger.Error("failed to create consumer group", "group", group, "error", err)
		return
	}
	consumer := fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "group", group, "consumer", consumer)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			if b.ctx.Err() != nil {
				return
			}
			res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
				Group:    group,
				Consumer: consumer,
				Streams:  []string{b.stream, ">"},
				Count:    10,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if b.ctx.Err() != nil {
					return
				}
				b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
				time.Sleep(time.Second)
				continue
			}
			for _, stream := range res {
				for _, msg := range stream.Messages {
					b.handle(eventType, group, msg, handler)
				}
			}
		}
	}()
}

func (b *RedisEventBus) handle(eventType events.EventType, group string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	typ, evt, err := decodeEnvelope([]byte(raw))
	if typ != eventType.String() {
		return
	}
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "event_type", typ)
		b.pushToDLQ(msg.Values)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "panic", r, "event_type", typ)
			b.pushToDLQ(msg.Values)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", typ)
		b.pushToDLQ(msg.Values)
	}
}

func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlq := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops the consumers and closes the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
