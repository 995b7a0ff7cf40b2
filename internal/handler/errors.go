package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// Error codes carried in the "error" field of every failure response.
const (
	codeValidation  = "validation_error"
	codeNotFound    = "not_found"
	codeSoldOut     = "insufficient_inventory"
	codePersistence = "persistence_error"
	codeUnavailable = "unavailable"
)

// writeError maps a ledger or repository error onto its status code and
// payload. Storage failures are logged here and reported without detail.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	var verr *model.ValidationError
	var ierr *model.InsufficientInventoryError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   codeValidation,
			"message": verr.Error(),
			"field":   verr.Field,
		})
	case errors.Is(err, model.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": codeValidation, "message": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": codeNotFound, "message": err.Error()})
	case errors.As(err, &ierr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     codeSoldOut,
			"message":   "not enough tickets available",
			"remaining": ierr.Remaining,
			"requested": ierr.Requested,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": codeUnavailable, "message": "request timed out, try again"})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": codePersistence, "message": "storage failure"})
	}
}
