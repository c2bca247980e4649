package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"estate-backend/internal/domain"
	"estate-backend/internal/pkg/breaker"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

// DefaultExchange is the topic exchange events are routed through.
const DefaultExchange = "estate.events"

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange with routing
// key "<ledger>.<EventName>".
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	cb       *gobreaker.CircuitBreaker
}

// DialAMQP connects and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}
	p := newAMQPPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		cb:       breaker.New("amqp-publisher", breaker.DefaultConfig()),
	}
}

// RoutingKey returns the topic routing key for an event.
func RoutingKey(e *domain.LedgerEvent) string {
	return string(e.Ledger) + "." + e.Name
}

func (p *AMQPPublisher) Publish(ctx context.Context, evts []domain.LedgerEvent) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i := range evts {
			e := &evts[i]
			body, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			msg := amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				MessageId:     e.EventID.String(),
				CorrelationId: e.TxID.String(),
				Timestamp:     e.CreatedAt,
				Type:          e.Name,
				Body:          body,
			}
			if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(e), false, false, msg); err != nil {
				return nil, fmt.Errorf("events: amqp publish %s: %w", e.Name, err)
			}
		}
		return nil, nil
	})
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
