package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/ledger"
	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/repository"
)

// Catalog is the read side of the show repository.
type Catalog interface {
	List(ctx context.Context) ([]model.Show, error)
	GetByID(ctx context.Context, id string) (*model.Show, error)
}

// Auditor checks a show's inventory against its orders.
type Auditor interface {
	Audit(ctx context.Context, showID string) (*ledger.AuditReport, error)
}

// Seeder loads the default catalog.
type Seeder interface {
	SeedDefaults(ctx context.Context) (int, error)
}

// ShowHandler serves the catalog.
type ShowHandler struct {
	Catalog Catalog
	Auditor Auditor
	Seeder  Seeder
	Log     logrus.FieldLogger
}

// NewShowHandler panics if catalog or auditor is nil. seeder may be nil,
// in which case the seed endpoint answers 404.
func NewShowHandler(catalog Catalog, auditor Auditor, seeder Seeder, log logrus.FieldLogger) *ShowHandler {
	if catalog == nil || auditor == nil {
		panic("nil dependency passed to NewShowHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ShowHandler{Catalog: catalog, Auditor: auditor, Seeder: seeder, Log: log}
}

// ListShows returns the catalog ordered by date, time and id. Optional
// query parameters: title and venue (substring match), available=true to
// hide sold-out shows, page and page_size.
func (h *ShowHandler) ListShows(c echo.Context) error {
	q, err := searchQuery(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	shows, err := h.Catalog.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	page, total := repository.Search(shows, q)
	return c.JSON(http.StatusOK, echo.Map{"shows": page, "total": total})
}

func searchQuery(c echo.Context) (repository.ShowSearchQuery, error) {
	q := repository.ShowSearchQuery{
		Title: c.QueryParam("title"),
		Venue: c.QueryParam("venue"),
	}
	if v := c.QueryParam("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, &model.ValidationError{Field: "available", Reason: "must be a boolean"}
		}
		q.AvailableOnly = b
	}
	for name, dst := range map[string]*int{"page": &q.Page, "page_size": &q.PageSize} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, &model.ValidationError{Field: name, Reason: "must be a positive integer"}
		}
		*dst = n
	}
	return q, nil
}

// GetShow returns one show with its current remaining inventory.
func (h *ShowHandler) GetShow(c echo.Context) error {
	show, err := h.Catalog.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"show": show})
}

// AuditShow reports whether capacity still equals remaining plus sold.
func (h *ShowHandler) AuditShow(c echo.Context) error {
	report, err := h.Auditor.Audit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !report.Consistent {
		h.Log.WithFields(logrus.Fields{
			"show_id":     report.ShowID,
			"discrepancy": report.Discrepancy,
		}).Warn("inventory audit found a discrepancy")
	}
	return c.JSON(http.StatusOK, echo.Map{"audit": report})
}

// SeedShows creates the default catalog entries that do not exist yet.
// Existing shows keep their inventory.
func (h *ShowHandler) SeedShows(c echo.Context) error {
	if h.Seeder == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": codeNotFound, "message": "seeding is disabled"})
	}
	n, err := h.Seeder.SeedDefaults(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "created": n, "message": "Shows initialized"})
}
