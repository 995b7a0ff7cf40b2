// Package metrics exposes Prometheus counters for order placement.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonValidation  = "validation"
	ReasonNotFound    = "not_found"
	ReasonSoldOut     = "insufficient_inventory"
	ReasonPersistence = "persistence"
	ReasonLock        = "lock"
)

// Ledger groups the order placement counters. A nil *Ledger is valid and
// records nothing, which keeps tests free of registry plumbing.
type Ledger struct {
	ordersPlaced  prometheus.Counter
	ticketsSold   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// NewLedger registers the ledger counters on reg.
func NewLedger(reg prometheus.Registerer) *Ledger {
	f := promauto.With(reg)
	return &Ledger{
		ordersPlaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "orders_placed_total",
			Help:      "Orders durably recorded.",
		}),
		ticketsSold: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "tickets_sold_total",
			Help:      "Tickets granted, by show.",
		}, []string{"show_id"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "order_rejections_total",
			Help:      "Order placements that failed, by reason.",
		}, []string{"reason"}),
		compensations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "inventory_compensations_total",
			Help:      "Inventory restorations after a failed order write, by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Ledger) OrderPlaced(showID string, tickets int) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.ticketsSold.WithLabelValues(showID).Add(float64(tickets))
}

func (m *Ledger) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// Compensated records an inventory rollback; ok is false when the rollback
// itself failed and the show is left under-counted.
func (m *Ledger) Compensated(ok bool) {
	if m == nil {
		return
	}
	outcome := "restored"
	if !ok {
		outcome = "failed"
	}
	m.compensations.WithLabelValues(outcome).Inc()
}
