// Package queue defines the order confirmation message exchanged over
// RabbitMQ and the background consumer that delivers it.
package queue

import (
	"time"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// OrderConfirmedQueue is the durable queue confirmations are published to.
const OrderConfirmedQueue = "order.confirmed"

// OrderConfirmedEvent is published once an order is durably recorded. It
// carries everything a consumer needs to email or log the confirmation
// without reading the record store.
type OrderConfirmedEvent struct {
	OrderID       string `json:"order_id"`
	ShowID        string `json:"show_id"`
	ShowTitle     string `json:"show_title"`
	ShowDate      string `json:"show_date"`
	ShowTime      string `json:"show_time"`
	Venue         string `json:"venue"`
	Tickets       int    `json:"tickets"`
	Subtotal      string `json:"subtotal"`
	ServiceTax    string `json:"service_tax"`
	TotalPrice    string `json:"total_price"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// NewOrderConfirmedEvent flattens an order and its show into an event.
// Amounts are rendered with two decimals.
func NewOrderConfirmedEvent(o model.Order, s model.Show) OrderConfirmedEvent {
	return OrderConfirmedEvent{
		OrderID:       o.ID,
		ShowID:        o.ShowID,
		ShowTitle:     s.Title,
		ShowDate:      s.Date,
		ShowTime:      s.Time,
		Venue:         s.Venue,
		Tickets:       o.TicketCount,
		Subtotal:      o.Subtotal.StringFixed(2),
		ServiceTax:    o.ServiceTax.StringFixed(2),
		TotalPrice:    o.TotalPrice.StringFixed(2),
		CustomerName:  o.Contact.Name,
		CustomerEmail: o.Contact.Email,
		CustomerPhone: o.Contact.Phone,
		ConfirmedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
