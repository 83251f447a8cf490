package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type publisher interface {
	Publish(ctx context.Context, eventType string, data any) (string, error)
}

// BreakerConfig controls when a BreakerPublisher stops calling the stream.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// BreakerPublisher rejects publishes immediately while the stream keeps
// failing, so an unreachable Redis does not add its dial timeout to every
// processed instruction.
type BreakerPublisher struct {
	next    publisher
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerPublisher(next publisher, logger *zap.Logger, config BreakerConfig) *BreakerPublisher {
	if config.ConsecutiveFailures == 0 {
		config.ConsecutiveFailures = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: 1,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return &BreakerPublisher{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (p *BreakerPublisher) Publish(ctx context.Context, eventType string, data any) (string, error) {
	id, err := p.breaker.Execute(func() (interface{}, error) {
		return p.next.Publish(ctx, eventType, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("event stream unavailable: %w", err)
	}
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (p *BreakerPublisher) State() string {
	return p.breaker.State().String()
}
