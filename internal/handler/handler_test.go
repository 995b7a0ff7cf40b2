package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-ledger/internal/ledger"
	"github.com/iliyamo/ticket-ledger/internal/lock"
	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/repository"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

type api struct {
	e     *echo.Echo
	shows *repository.ShowRepo
	hook  *test.Hook
}

func newAPI(t *testing.T, catalog ...model.Show) *api {
	t.Helper()
	s := store.NewMemory()
	shows := repository.NewShowRepo(s)
	orders := repository.NewOrderRepo(s)
	for i := range catalog {
		require.NoError(t, shows.Create(context.Background(), &catalog[i]))
	}
	log, hook := test.NewNullLogger()
	l := ledger.New(ledger.Deps{Shows: shows, Orders: orders, Locker: lock.NewTable(), Log: log})

	sh := NewShowHandler(shows, l, shows, log)
	oh := NewOrderHandler(l, log)
	e := echo.New()
	e.GET("/v1/shows", sh.ListShows)
	e.GET("/v1/shows/:id", sh.GetShow)
	e.GET("/v1/shows/:id/audit", sh.AuditShow)
	e.POST("/v1/shows/seed", sh.SeedShows)
	e.POST("/v1/orders", oh.PlaceOrder)
	e.GET("/v1/orders/:id", oh.GetOrder)
	return &api{e: e, shows: shows, hook: hook}
}

func (a *api) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func show(id, date string, capacity, remaining int) model.Show {
	return model.Show{
		ID:               id,
		Title:            "Show " + id,
		Venue:            "Main Hall",
		Date:             date,
		Time:             "19:30",
		UnitPrice:        decimal.NewFromInt(85),
		Capacity:         capacity,
		TicketsRemaining: remaining,
	}
}

const orderBody = `{"showId":"s1","tickets":2,"customerInfo":{"name":"Ada","email":"ada@example.com","phone":"555-0100"}}`

func TestListShows(t *testing.T) {
	a := newAPI(t,
		show("s2", "2025-12-20", 10, 0),
		show("s1", "2025-12-15", 10, 10),
		show("s3", "2025-12-18", 10, 4),
	)

	rec := a.do(http.MethodGet, "/v1/shows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Shows []model.Show `json:"shows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Shows, 3)
	assert.Equal(t, []string{"s1", "s3", "s2"}, []string{body.Shows[0].ID, body.Shows[1].ID, body.Shows[2].ID})
	assert.Equal(t, 4, body.Shows[1].TicketsRemaining)

	rec = a.do(http.MethodGet, "/v1/shows?available=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Shows, 2)

	rec = a.do(http.MethodGet, "/v1/shows?page_size=1&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, float64(3), out["total"])
	assert.Equal(t, "s3", out["shows"].([]any)[0].(map[string]any)["id"])

	for _, bad := range []string{"available=maybe", "page=0", "page_size=x"} {
		rec = a.do(http.MethodGet, "/v1/shows?"+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestListShows_EmptyCatalog(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/v1/shows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"shows":[],"total":0}`, rec.Body.String())
}

func TestGetShow(t *testing.T) {
	a := newAPI(t, show("s1", "2025-12-15", 150, 150))

	rec := a.do(http.MethodGet, "/v1/shows/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode(t, rec)["show"].(map[string]any)
	assert.Equal(t, "s1", s["id"])
	assert.Equal(t, float64(150), s["availableTickets"])
	assert.Equal(t, float64(85), s["price"])

	rec = a.do(http.MethodGet, "/v1/shows/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["error"])
}

func TestPlaceOrder_Created(t *testing.T) {
	a := newAPI(t, show("s1", "2025-12-15", 150, 150))

	rec := a.do(http.MethodPost, "/v1/orders", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])

	order := body["order"].(map[string]any)
	assert.Equal(t, "s1", order["showId"])
	assert.Equal(t, float64(2), order["tickets"])
	assert.Equal(t, float64(170), order["subtotal"])
	assert.Equal(t, float64(17), order["serviceTax"])
	assert.Equal(t, float64(187), order["totalPrice"])
	assert.Equal(t, "confirmed", order["status"])
	assert.Equal(t, "/v1/orders/"+order["id"].(string), rec.Header().Get(echo.HeaderLocation))

	s, err := a.shows.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 148, s.TicketsRemaining)

	rec = a.do(http.MethodGet, "/v1/orders/"+order["id"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order, decode(t, rec)["order"])
}

func TestPlaceOrder_AcceptsTicketCountAlias(t *testing.T) {
	a := newAPI(t, show("s1", "2025-12-15", 5, 5))

	rec := a.do(http.MethodPost, "/v1/orders",
		`{"showId":"s1","ticketCount":5,"customerInfo":{"name":"Ada","email":"ada@example.com","phone":"555-0100"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(5), decode(t, rec)["order"].(map[string]any)["tickets"])
}

func TestPlaceOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{"too many tickets", `{"showId":"s1","tickets":11,"customerInfo":{"name":"A","email":"a@b.c","phone":"1"}}`, http.StatusBadRequest, "validation_error", "tickets"},
		{"zero tickets", `{"showId":"s1","tickets":0,"customerInfo":{"name":"A","email":"a@b.c","phone":"1"}}`, http.StatusBadRequest, "validation_error", "tickets"},
		{"missing tickets", `{"showId":"s1","customerInfo":{"name":"A","email":"a@b.c","phone":"1"}}`, http.StatusBadRequest, "validation_error", "tickets"},
		{"missing contact", `{"showId":"s1","tickets":1}`, http.StatusBadRequest, "validation_error", "customerInfo"},
		{"blank email", `{"showId":"s1","tickets":1,"customerInfo":{"name":"A","email":"  ","phone":"1"}}`, http.StatusBadRequest, "validation_error", "customerInfo.email"},
		{"fractional tickets", `{"showId":"s1","tickets":1.5,"customerInfo":{"name":"A","email":"a@b.c","phone":"1"}}`, http.StatusBadRequest, "validation_error", "body"},
		{"malformed json", `{"showId":`, http.StatusBadRequest, "validation_error", "body"},
		{"unknown show", `{"showId":"nope","tickets":1,"customerInfo":{"name":"A","email":"a@b.c","phone":"1"}}`, http.StatusNotFound, "not_found", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t, show("s1", "2025-12-15", 5, 5))
			rec := a.do(http.MethodPost, "/v1/orders", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["error"])
			assert.NotEmpty(t, body["message"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}

			s, err := a.shows.GetByID(context.Background(), "s1")
			require.NoError(t, err)
			assert.Equal(t, 5, s.TicketsRemaining)
		})
	}
}

func TestPlaceOrder_SoldOut(t *testing.T) {
	a := newAPI(t, show("s1", "2025-12-15", 5, 1))

	rec := a.do(http.MethodPost, "/v1/orders", orderBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "insufficient_inventory", body["error"])
	assert.Equal(t, float64(1), body["remaining"])
	assert.Equal(t, float64(2), body["requested"])
}

func TestPlaceOrder_RequiresJSONContentType(t *testing.T) {
	a := newAPI(t, show("s1", "2025-12-15", 5, 5))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(orderBody))
	req.Header.Set(echo.HeaderContentType, "text/plain")
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body", decode(t, rec)["field"])
}

func TestGetOrder_NotFound(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/v1/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["error"])
}

func TestAuditShow(t *testing.T) {
	a := newAPI(t, show("s1", "2025-12-15", 5, 5))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/orders", orderBody).Code)

	rec := a.do(http.MethodGet, "/v1/shows/s1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	audit := decode(t, rec)["audit"].(map[string]any)
	assert.Equal(t, true, audit["consistent"])
	assert.Equal(t, float64(2), audit["ticketsSold"])
	assert.Equal(t, float64(3), audit["availableTickets"])

	rec = a.do(http.MethodGet, "/v1/shows/nope/audit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeedShows(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/shows/seed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(len(repository.DefaultShows())), decode(t, rec)["created"])

	rec = a.do(http.MethodPost, "/v1/shows/seed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["created"])
}

type brokenCatalog struct{}

func (brokenCatalog) List(context.Context) ([]model.Show, error) {
	return nil, model.Persistence("scan shows", errors.New("connection refused"))
}

func (brokenCatalog) GetByID(context.Context, string) (*model.Show, error) {
	return nil, model.Persistence("get show", errors.New("connection refused"))
}

type noAudit struct{}

func (noAudit) Audit(context.Context, string) (*ledger.AuditReport, error) { return nil, nil }

func TestListShows_StorageFailureIsHidden(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := NewShowHandler(brokenCatalog{}, noAudit{}, nil, log)
	e := echo.New()
	e.GET("/v1/shows", h.ListShows)
	e.POST("/v1/shows/seed", h.SeedShows)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/shows", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "persistence_error", body["error"])
	assert.NotContains(t, body["message"], "connection refused")
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Data["error"].(error).Error(), "connection refused")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/shows/seed", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteError_ContextErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/orders", nil), rec)

	require.NoError(t, writeError(c, log, context.DeadlineExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health(nil))
	e.GET("/readyz", Health(map[string]Pinger{
		"db":    PingFunc(func(context.Context) error { return nil }),
		"redis": PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	failed := decode(t, rec)["failed"].(map[string]any)
	assert.Contains(t, failed, "redis")
	assert.NotContains(t, failed, "db")
}
