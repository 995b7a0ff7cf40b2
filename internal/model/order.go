package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Only confirmed orders
// exist; there is no cancellation or refund path.
type OrderStatus string

const OrderStatusConfirmed OrderStatus = "confirmed"

const (
	MinTicketsPerOrder = 1
	MaxTicketsPerOrder = 10
)

// Contact is the buyer information captured at checkout. It is only
// checked for presence, never re-validated.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Order is the immutable record of a completed purchase. It is written
// once by the ledger together with the inventory decrement on its show
// and never modified afterwards. The show title, date, time and venue are
// copied in so a receipt can be rendered without reading the catalog.
type Order struct {
	ID          string          `json:"id"`
	ShowID      string          `json:"showId"`
	ShowTitle   string          `json:"showTitle"`
	ShowDate    string          `json:"showDate"`
	ShowTime    string          `json:"showTime"`
	Venue       string          `json:"venue"`
	TicketCount int             `json:"tickets"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ServiceTax  decimal.Decimal `json:"serviceTax"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Contact     Contact         `json:"customerInfo"`
	CreatedAt   time.Time       `json:"createdAt"`
	Status      OrderStatus     `json:"status"`
}
