package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultMaxLen caps the stream so an idle consumer cannot grow it without bound.
const defaultMaxLen = 10000

// Publisher appends events to a single Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	if stream == "" {
		stream = PaymentEventsStream
	}
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
		now:    time.Now,
	}
}

// Stream returns the stream this publisher writes to.
func (p *Publisher) Stream() string {
	return p.stream
}

// Publish wraps data in an Event envelope and returns the stream entry ID.
func (p *Publisher) Publish(ctx context.Context, eventType string, data any) (string, error) {
	eventJSON, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"event": eventJSON},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish event to %s: %w", p.stream, err)
	}
	return id, nil
}
