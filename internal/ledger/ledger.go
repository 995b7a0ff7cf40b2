// Package ledger places orders. It owns the reservation protocol: for a
// given show, reading the remaining inventory, checking it and writing the
// decrement happen under that show's lock, so concurrent buyers can never
// be granted more tickets than the show has. The order record is written
// inside the same critical section; if that write fails the decrement is
// rolled back before the lock is released.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/clock"
	"github.com/iliyamo/ticket-ledger/internal/lock"
	"github.com/iliyamo/ticket-ledger/internal/metrics"
	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/notify"
	"github.com/iliyamo/ticket-ledger/internal/repository"
)

// maxIDAttempts bounds how often an order write is retried with a fresh
// id after a collision.
const maxIDAttempts = 3

// ShowStore is the catalog access the ledger needs.
type ShowStore interface {
	GetByID(ctx context.Context, id string) (*model.Show, error)
	UpdateInventory(ctx context.Context, id string, remaining int) error
}

// OrderStore is the order persistence the ledger needs. Create must fail
// with repository.ErrOrderExists instead of overwriting.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByShow(ctx context.Context, showID string) ([]model.Order, error)
}

// Deps are the collaborators of a Ledger. Shows, Orders and Locker are
// required; the rest fall back to defaults.
type Deps struct {
	Shows    ShowStore
	Orders   OrderStore
	Locker   lock.Locker
	Notifier notify.Notifier
	Clock    clock.Clock
	IDs      IDGenerator
	Metrics  *metrics.Ledger
	Log      logrus.FieldLogger
}

// Ledger is safe for concurrent use.
type Ledger struct {
	shows    ShowStore
	orders   OrderStore
	locker   lock.Locker
	notifier notify.Notifier
	clock    clock.Clock
	ids      IDGenerator
	metrics  *metrics.Ledger
	log      logrus.FieldLogger
}

// New builds a Ledger and panics if a required dependency is missing.
func New(d Deps) *Ledger {
	if d.Shows == nil || d.Orders == nil || d.Locker == nil {
		panic("ledger: shows, orders and locker are required")
	}
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	if d.IDs == nil {
		d.IDs = NewULIDGenerator(d.Clock)
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Notifier == nil {
		d.Notifier = notify.LogSink{Log: d.Log}
	}
	return &Ledger{
		shows:    d.Shows,
		orders:   d.Orders,
		locker:   d.Locker,
		notifier: d.Notifier,
		clock:    d.Clock,
		ids:      d.IDs,
		metrics:  d.Metrics,
		log:      d.Log,
	}
}

// PlaceOrder validates in, reserves tickets on the show, prices and stores
// the order, then hands it to the notifier.
//
// Errors match one of model.ErrValidation, model.ErrNotFound,
// model.ErrInsufficientInventory or model.ErrPersistence; a context error
// is returned as-is if ctx ends while waiting for the show's lock. On any
// error no order exists and the show's inventory is unchanged. Once the
// lock is held the reservation runs to completion even if ctx is
// cancelled.
func (l *Ledger) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	if err := in.Validate(); err != nil {
		l.metrics.Rejected(metrics.ReasonValidation)
		return nil, err
	}
	// Unknown shows fail before any lock is taken.
	show, err := l.shows.GetByID(ctx, in.ShowID)
	if err != nil {
		l.reject(err)
		return nil, err
	}
	// Lock on the stored id: a store may resolve differently spelled ids
	// to the same record.
	in.ShowID = show.ID

	order, show, err := l.reserve(ctx, in)
	if err != nil {
		l.reject(err)
		return nil, err
	}
	l.metrics.OrderPlaced(order.ShowID, order.TicketCount)
	l.log.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"show_id":   order.ShowID,
		"tickets":   order.TicketCount,
		"remaining": show.TicketsRemaining,
	}).Info("order placed")

	if err := l.notifier.Notify(ctx, *order, *show); err != nil {
		l.log.WithError(err).WithField("order_id", order.ID).Warn("order confirmation failed")
	}
	return order, nil
}

// reserve runs the locked part of PlaceOrder and returns the stored order
// together with the show as it is after the decrement.
func (l *Ledger) reserve(ctx context.Context, in PlaceOrderInput) (*model.Order, *model.Show, error) {
	unlock, err := l.locker.Lock(ctx, in.ShowID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, err
		}
		return nil, nil, model.Persistence("lock show "+in.ShowID, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			l.log.WithError(err).WithField("show_id", in.ShowID).Error("releasing show lock failed")
		}
	}()

	// From here on the caller going away must not leave a half-written
	// reservation behind.
	ctx = context.WithoutCancel(ctx)

	show, err := l.shows.GetByID(ctx, in.ShowID)
	if err != nil {
		return nil, nil, err
	}
	before := show.TicketsRemaining
	if before < in.TicketCount {
		return nil, nil, &model.InsufficientInventoryError{
			ShowID:    show.ID,
			Requested: in.TicketCount,
			Remaining: before,
		}
	}

	if err := l.shows.UpdateInventory(ctx, show.ID, before-in.TicketCount); err != nil {
		// The write may have landed even though the reply was lost.
		err = wrapPersistence("decrement inventory", err)
		l.compensate(ctx, show.ID, before, err)
		return nil, nil, err
	}

	order := l.newOrder(*show, in)
	if err := l.createOrder(ctx, order); err != nil {
		l.compensate(ctx, show.ID, before, err)
		return nil, nil, err
	}
	show.TicketsRemaining = before - in.TicketCount
	return order, show, nil
}

func (l *Ledger) newOrder(show model.Show, in PlaceOrderInput) *model.Order {
	q := Price(show.UnitPrice, in.TicketCount)
	return &model.Order{
		ID:          l.ids.NewID(),
		ShowID:      show.ID,
		ShowTitle:   show.Title,
		ShowDate:    show.Date,
		ShowTime:    show.Time,
		Venue:       show.Venue,
		TicketCount: in.TicketCount,
		Subtotal:    q.Subtotal,
		ServiceTax:  q.ServiceTax,
		TotalPrice:  q.Total,
		Contact:     in.Contact,
		CreatedAt:   l.clock.Now(),
		Status:      model.OrderStatusConfirmed,
	}
}

// createOrder writes o, drawing a new id whenever the current one is
// already taken.
func (l *Ledger) createOrder(ctx context.Context, o *model.Order) error {
	for attempt := 1; ; attempt++ {
		err := l.orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrOrderExists) {
			return wrapPersistence("write order", err)
		}
		if attempt == maxIDAttempts {
			return model.Persistence("write order", fmt.Errorf("no free order id after %d attempts: %w", attempt, err))
		}
		l.log.WithField("order_id", o.ID).Warn("order id collision, retrying with a new id")
		o.ID = l.ids.NewID()
	}
}

// compensate puts the inventory back after a failed write. It runs
// while the show lock is still held, so writing the old value cannot undo
// anybody else's reservation.
func (l *Ledger) compensate(ctx context.Context, showID string, remaining int, cause error) {
	if err := l.shows.UpdateInventory(ctx, showID, remaining); err != nil {
		l.metrics.Compensated(false)
		l.log.WithFields(logrus.Fields{
			"show_id":     showID,
			"remaining":   remaining,
			"write_error": cause.Error(),
		}).WithError(err).Error("inventory rollback failed; show is under-counted until repaired")
		return
	}
	l.metrics.Compensated(true)
	l.log.WithError(cause).WithField("show_id", showID).Warn("reservation failed; inventory restored")
}

// GetOrder returns a stored order. Orders never change, so repeated reads
// return identical data.
func (l *Ledger) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return l.orders.GetByID(ctx, id)
}

func (l *Ledger) reject(err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		l.metrics.Rejected(metrics.ReasonValidation)
	case errors.Is(err, model.ErrNotFound):
		l.metrics.Rejected(metrics.ReasonNotFound)
	case errors.Is(err, model.ErrInsufficientInventory):
		l.metrics.Rejected(metrics.ReasonSoldOut)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		l.metrics.Rejected(metrics.ReasonLock)
	default:
		l.metrics.Rejected(metrics.ReasonPersistence)
	}
}

// wrapPersistence tags err as a persistence failure unless it already
// carries a more specific kind.
func wrapPersistence(op string, err error) error {
	if errors.Is(err, model.ErrPersistence) || errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return model.Persistence(op, err)
}

// AuditReport compares a show's inventory with the orders stored for it.
// Consistent means Capacity == Remaining + Sold.
type AuditReport struct {
	ShowID      string `json:"showId"`
	Capacity    int    `json:"capacity"`
	Remaining   int    `json:"availableTickets"`
	Sold        int    `json:"ticketsSold"`
	Orders      int    `json:"orders"`
	Discrepancy int    `json:"discrepancy"`
	Consistent  bool   `json:"consistent"`
}

// Audit checks that no tickets of the show were lost or oversold. It holds
// the show's lock so an in-flight reservation is never half counted.
func (l *Ledger) Audit(ctx context.Context, showID string) (*AuditReport, error) {
	show, err := l.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	showID = show.ID
	unlock, err := l.locker.Lock(ctx, showID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, model.Persistence("lock show "+showID, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			l.log.WithError(err).WithField("show_id", showID).Error("releasing show lock failed")
		}
	}()

	show, err = l.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	orders, err := l.orders.ListByShow(ctx, showID)
	if err != nil {
		return nil, wrapPersistence("list orders", err)
	}
	sold := 0
	for _, o := range orders {
		sold += o.TicketCount
	}
	diff := show.Capacity - show.TicketsRemaining - sold
	return &AuditReport{
		ShowID:      show.ID,
		Capacity:    show.Capacity,
		Remaining:   show.TicketsRemaining,
		Sold:        sold,
		Orders:      len(orders),
		Discrepancy: diff,
		Consistent:  diff == 0,
	}, nil
}
