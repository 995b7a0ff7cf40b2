package model

import "github.com/shopspring/decimal"

func init() {
	// Prices leave the service as JSON numbers (85, 93.5) rather than strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Show is a sellable event with a fixed ticket capacity and unit price.
// Everything except TicketsRemaining is fixed when the catalog is seeded;
// TicketsRemaining only ever decreases, and only through order placement.
//
// Fields:
//  ID               – stable identifier (e.g. "show-1").
//  Title            – event name.
//  Description      – short blurb shown in the catalog.
//  Venue            – where the event takes place.
//  Date             – calendar date, YYYY-MM-DD.
//  Time             – local start time, HH:MM.
//  ImageURL         – catalog artwork.
//  UnitPrice        – price of one ticket, never negative.
//  Capacity         – total tickets that can ever be sold.
//  TicketsRemaining – tickets still available, 0 ≤ remaining ≤ capacity.
type Show struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	Venue            string          `json:"venue"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	ImageURL         string          `json:"imageUrl,omitempty"`
	UnitPrice        decimal.Decimal `json:"price"`
	Capacity         int             `json:"capacity"`
	TicketsRemaining int             `json:"availableTickets"`
}

// SoldOut reports whether no tickets remain.
func (s Show) SoldOut() bool { return s.TicketsRemaining <= 0 }

// TicketsSold is the number of tickets granted so far.
func (s Show) TicketsSold() int { return s.Capacity - s.TicketsRemaining }
