package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"estate-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Publisher delivers committed ledger events to downstream consumers.
// It is only called after the emitting transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, events []domain.LedgerEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, []domain.LedgerEvent) error { return nil }

// DefaultChannel is the Redis pub/sub channel events are published on.
const DefaultChannel = "estate:events"

// RedisPublisher publishes each event as JSON on a pub/sub channel.
type RedisPublisher struct {
	Rdb     redis.UniversalClient
	Channel string
}

func (p *RedisPublisher) Publish(ctx context.Context, evts []domain.LedgerEvent) error {
	channel := p.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	for i := range evts {
		b, err := json.Marshal(&evts[i])
		if err != nil {
			return err
		}
		if err := p.Rdb.Publish(ctx, channel, b).Err(); err != nil {
			return fmt.Errorf("events: redis publish %s: %w", evts[i].Name, err)
		}
	}
	return nil
}

// Multi fans out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evts []domain.LedgerEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sinks builds the publishers for the configured transports. rdb may be nil
// and an empty amqpURL skips RabbitMQ; with neither, Sinks returns an empty Multi.
func Sinks(rdb redis.UniversalClient, amqpURL, exchange string) (Multi, error) {
	var m Multi
	if rdb != nil {
		m = append(m, &RedisPublisher{Rdb: rdb})
	}
	if amqpURL != "" {
		pub, err := DialAMQP(amqpURL, exchange)
		if err != nil {
			return nil, err
		}
		m = append(m, pub)
	}
	return m, nil
}
