package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Mailer delivers a confirmation email for one event.
type Mailer interface {
	SendConfirmation(ctx context.Context, ev OrderConfirmedEvent) error
}

// Consumer reads order.confirmed, appends one line per order to a log file
// and, when a Mailer is set, emails the buyer. Messages that cannot be
// handled are rejected without requeue; delivery is best-effort.
type Consumer struct {
	URL         string
	LogPath     string
	Mailer      Mailer
	MailTimeout time.Duration // per message; defaults to 10s
	Log         logrus.FieldLogger

	fileMu sync.Mutex
}

// NewConsumer returns a consumer writing to logs/orders.log.
func NewConsumer(url string, mailer Mailer, log logrus.FieldLogger) *Consumer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Consumer{
		URL:         url,
		LogPath:     filepath.Join("logs", "orders.log"),
		Mailer:      mailer,
		MailTimeout: 10 * time.Second,
		Log:         log,
	}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) when the
// connection drops. It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.WithError(err).Warnf("order-consumer: failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.WithError(err).Warn("order-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.WithError(err).Warn("order-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(OrderConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OrderConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(ctx, d.Body); err != nil {
				c.Log.WithError(err).WithField("message_id", d.MessageId).Warn("order-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage processes one raw order.confirmed payload. The log line is
// written before the email is attempted, so a mail failure still leaves a
// record of the order.
func (c *Consumer) HandleMessage(ctx context.Context, body []byte) error {
	var ev OrderConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("event without order_id")
	}
	if err := c.appendLog(ev); err != nil {
		return err
	}
	if c.Mailer != nil {
		timeout := c.MailTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := c.Mailer.SendConfirmation(ctx, ev); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}
	}
	return nil
}

func (c *Consumer) appendLog(ev OrderConfirmedEvent) error {
	c.fileMu.Lock()
	defer c.fileMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Order confirmed | order_id=%s | show_id=%s | show=%q | venue=%q | date=%s %s | tickets=%d | total=%s | customer=%q | email=%s\n",
		ev.ConfirmedAt, ev.OrderID, ev.ShowID, ev.ShowTitle, ev.Venue, ev.ShowDate, ev.ShowTime, ev.Tickets, ev.TotalPrice, ev.CustomerName, ev.CustomerEmail)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
