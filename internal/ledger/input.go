package ledger

import (
	"strings"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// PlaceOrderInput is a purchase request after it has been decoded at the
// HTTP boundary.
type PlaceOrderInput struct {
	ShowID      string
	TicketCount int
	Contact     model.Contact
}

// Validate checks everything that can be checked without touching the
// store: a show id, a ticket count in [1, 10] and a complete contact.
func (in PlaceOrderInput) Validate() error {
	if strings.TrimSpace(in.ShowID) == "" {
		return &model.ValidationError{Field: "showId", Reason: "is required"}
	}
	if in.TicketCount < model.MinTicketsPerOrder || in.TicketCount > model.MaxTicketsPerOrder {
		return &model.ValidationError{Field: "tickets", Reason: "must be between 1 and 10"}
	}
	for _, f := range []struct{ name, value string }{
		{"customerInfo.name", in.Contact.Name},
		{"customerInfo.email", in.Contact.Email},
		{"customerInfo.phone", in.Contact.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &model.ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	return nil
}
