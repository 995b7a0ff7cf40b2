package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/queue"
)

// Publisher hands confirmations to RabbitMQ for queue.Consumer to deliver.
// The connection is opened lazily and reopened after a failure. A circuit
// breaker stops dialling a dead broker on every order: after five
// consecutive failures publishes fail fast for the breaker timeout.
type Publisher struct {
	url     string
	queue   string
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for the order.confirmed queue on the
// broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Publisher{url: url, queue: queue.OrderConfirmedQueue, log: log}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "rabbitmq-publish",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("publisher circuit breaker changed state")
		},
	})
	return p
}

func (p *Publisher) Notify(ctx context.Context, order model.Order, show model.Show) error {
	return p.Publish(ctx, queue.NewOrderConfirmedEvent(order, show))
}

// Publish sends ev as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev queue.OrderConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: marshal event: %w", model.ErrNotification, err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.OrderID,
		Body:         body,
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publish(ctx, pub)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotification, err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, pub amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.resetLocked()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channelLocked returns an open channel, dialling and declaring the queue
// if needed. p.mu must be held.
func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
