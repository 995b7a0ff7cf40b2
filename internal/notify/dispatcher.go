package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// Dispatcher runs another Notifier in the background so the purchase
// response never waits on it. Each dispatch gets its own timeout,
// detached from the request context. Failures, including panics, are
// logged and dropped; Notify itself always returns nil.
type Dispatcher struct {
	next    Notifier
	timeout time.Duration
	log     logrus.FieldLogger
	wg      sync.WaitGroup
}

// NewDispatcher wraps next. A non-positive timeout defaults to 10s.
func NewDispatcher(next Notifier, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{next: next, timeout: timeout, log: log}
}

func (d *Dispatcher) Notify(ctx context.Context, order model.Order, show model.Show) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.deliver(ctx, order, show); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"order_id": order.ID,
				"show_id":  show.ID,
			}).Warn("order confirmation not delivered")
		}
	}()
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, order model.Order, show model.Show) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", model.ErrNotification, r)
		}
	}()
	return d.next.Notify(ctx, order, show)
}

// Wait blocks until every dispatch started so far has finished. Call it
// during shutdown, after the HTTP server stopped accepting orders.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
