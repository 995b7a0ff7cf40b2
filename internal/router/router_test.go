package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-ledger/internal/config"
	"github.com/iliyamo/ticket-ledger/internal/handler"
	"github.com/iliyamo/ticket-ledger/internal/ledger"
	"github.com/iliyamo/ticket-ledger/internal/lock"
	"github.com/iliyamo/ticket-ledger/internal/metrics"
	"github.com/iliyamo/ticket-ledger/internal/repository"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

func newServer(t *testing.T, rdb *redis.Client) *echo.Echo {
	t.Helper()
	s := store.NewMemory()
	shows := repository.NewShowRepo(s)
	_, err := shows.SeedDefaults(context.Background())
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	l := ledger.New(ledger.Deps{
		Shows:   shows,
		Orders:  repository.NewOrderRepo(s),
		Locker:  lock.NewTable(),
		Metrics: metrics.NewLedger(reg),
		Log:     log,
	})
	return New(Deps{
		Shows:  handler.NewShowHandler(shows, l, shows, log),
		Orders: handler.NewOrderHandler(l, log),
		Redis:  rdb,
		RateLimit: config.RateLimitConfig{
			Enabled:        true,
			Capacity:       1,
			RefillTokens:   1,
			RefillInterval: time.Minute,
			TTL:            10 * time.Minute,
			Prefix:         "rl",
		},
		Cache: config.CacheConfig{
			Enabled:      true,
			Methods:      map[string]bool{http.MethodGet: true},
			TTL:          time.Minute,
			Prefix:       "cache",
			MaxBodyBytes: 1 << 16,
		},
		Gatherer:    reg,
		CORSOrigins: []string{"*"},
		Log:         log,
	})
}

func call(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	e := newServer(t, nil)

	rec := call(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = call(e, http.MethodGet, "/v1/shows", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"show-1"`)

	rec = call(e, http.MethodGet, "/v1/shows/show-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodPost, "/v1/orders",
		`{"showId":"show-1","tickets":2,"customerInfo":{"name":"Ada","email":"ada@example.com","phone":"555"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	location := rec.Header().Get(echo.HeaderLocation)

	rec = call(e, http.MethodGet, location, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodGet, "/v1/shows/show-1/audit", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"consistent":true`)

	rec = call(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ticketing_orders_placed_total 1")
}

func TestRoutes_RedisBackedMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newServer(t, rdb)

	body := `{"showId":"show-2","tickets":1,"customerInfo":{"name":"Ada","email":"ada@example.com","phone":"555"}}`
	rec := call(e, http.MethodPost, "/v1/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)

	rec = call(e, http.MethodPost, "/v1/orders", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, "MISS", call(e, http.MethodGet, location, "").Header().Get("X-Cache"))
	assert.Equal(t, "HIT", call(e, http.MethodGet, location, "").Header().Get("X-Cache"))

	// Catalog reads reflect live inventory and are never cached.
	assert.Empty(t, call(e, http.MethodGet, "/v1/shows/show-2", "").Header().Get("X-Cache"))
}

func TestRoutes_CORS(t *testing.T) {
	e := newServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1/shows", nil)
	req.Header.Set(echo.HeaderOrigin, "https://shop.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
