// Package notify sends order confirmations. Delivery is best-effort:
// the ledger calls a Notifier only after the order is stored, and a
// failure here never changes the outcome of the purchase.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// Notifier delivers a confirmation for one stored order.
type Notifier interface {
	Notify(ctx context.Context, order model.Order, show model.Show) error
}

// LogSink only logs the confirmation. It is the fallback when neither a
// broker nor a mail provider is configured.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Notify(_ context.Context, order model.Order, show model.Show) error {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"show_id":  show.ID,
		"tickets":  order.TicketCount,
		"total":    order.TotalPrice.StringFixed(2),
		"email":    order.Contact.Email,
	}).Info("order confirmed")
	return nil
}
