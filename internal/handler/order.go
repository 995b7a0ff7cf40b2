package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/ledger"
	"github.com/iliyamo/ticket-ledger/internal/model"
)

// OrderService is the part of the ledger the order endpoints use.
type OrderService interface {
	PlaceOrder(ctx context.Context, in ledger.PlaceOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

// OrderHandler serves order placement and lookup.
type OrderHandler struct {
	Orders OrderService
	Log    logrus.FieldLogger
}

// NewOrderHandler panics if orders is nil.
func NewOrderHandler(orders OrderService, log logrus.FieldLogger) *OrderHandler {
	if orders == nil {
		panic("nil order service passed to NewOrderHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderHandler{Orders: orders, Log: log}
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// placeOrderRequest is the POST /v1/orders body. The ticket count is
// accepted as either "tickets" or "ticketCount"; pointers tell a missing
// field apart from an explicit zero.
type placeOrderRequest struct {
	ShowID       string          `json:"showId"`
	Tickets      *int            `json:"tickets"`
	TicketCount  *int            `json:"ticketCount"`
	CustomerInfo *contactRequest `json:"customerInfo"`
}

func (r placeOrderRequest) input() (ledger.PlaceOrderInput, error) {
	tickets := r.Tickets
	if tickets == nil {
		tickets = r.TicketCount
	}
	if tickets == nil {
		return ledger.PlaceOrderInput{}, &model.ValidationError{Field: "tickets", Reason: "is required"}
	}
	if r.CustomerInfo == nil {
		return ledger.PlaceOrderInput{}, &model.ValidationError{Field: "customerInfo", Reason: "is required"}
	}
	in := ledger.PlaceOrderInput{
		ShowID:      strings.TrimSpace(r.ShowID),
		TicketCount: *tickets,
		Contact: model.Contact{
			Name:  strings.TrimSpace(r.CustomerInfo.Name),
			Email: strings.TrimSpace(r.CustomerInfo.Email),
			Phone: strings.TrimSpace(r.CustomerInfo.Phone),
		},
	}
	return in, in.Validate()
}

// PlaceOrder handles POST /v1/orders.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return writeError(c, h.Log, &model.ValidationError{Field: "body", Reason: "must be application/json"})
		}
		return writeError(c, h.Log, &model.ValidationError{Field: "body", Reason: "must be a valid JSON order"})
	}
	in, err := req.input()
	if err != nil {
		return writeError(c, h.Log, err)
	}
	order, err := h.Orders.PlaceOrder(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/orders/"+order.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"order":   order,
		"message": "Order created successfully. A confirmation email will follow.",
	})
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.Orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order})
}
