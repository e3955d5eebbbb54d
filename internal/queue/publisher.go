package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the domain stream.
	// Returns the message ID assigned by the backend.
	Publish(ctx context.Context, event Event) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	stream string
	log    *logger.Logger
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client, log *logger.Logger) Publisher {
	return &RedisPublisher{client: client, stream: StreamDomain, log: log}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, event Event) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.Warn("publish failed", "stream", p.stream, "type", event.Type, "error", err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.Debug("published event",
		"stream", p.stream,
		"type", event.Type,
		"msg_id", messageID,
		"lesson_id", event.LessonID,
		"duration", time.Since(startTime),
	)
	return messageID, nil
}

// NoopPublisher drops events. Used when REDIS_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) (string, error) {
	return "", nil
}

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return fmt.Sprintf("mem-%d", len(p.events)), nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// PublishBestEffort publishes and logs failures without returning them.
// Domain events never fail the request that produced them.
func PublishBestEffort(ctx context.Context, p Publisher, log *logger.Logger, event Event) {
	if _, err := p.Publish(ctx, event); err != nil {
		log.Warn("event dropped", "type", event.Type, "lesson_id", event.LessonID, "error", err)
	}
}
