package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

func newOrder(id, showID string, tickets int) *model.Order {
	return &model.Order{
		ID:          id,
		ShowID:      showID,
		TicketCount: tickets,
		Subtotal:    decimal.RequireFromString("170.00"),
		ServiceTax:  decimal.RequireFromString("17.00"),
		TotalPrice:  decimal.RequireFromString("187.00"),
		Contact:     model.Contact{Name: "Ada", Email: "ada@example.com", Phone: "555-0100"},
		CreatedAt:   time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
		Status:      model.OrderStatusConfirmed,
	}
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(store.NewMemory())

	require.NoError(t, repo.Create(ctx, newOrder("o-1", "show-1", 2)))

	got, err := repo.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "show-1", got.ShowID)
	assert.Equal(t, 2, got.TicketCount)
	assert.Equal(t, "187.00", got.TotalPrice.StringFixed(2))
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)
	assert.True(t, got.CreatedAt.Equal(time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)))
}

func TestOrderRepo_CreateNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(store.NewMemory())

	require.NoError(t, repo.Create(ctx, newOrder("o-1", "show-1", 2)))
	err := repo.Create(ctx, newOrder("o-1", "show-2", 5))
	assert.ErrorIs(t, err, ErrOrderExists)

	got, err := repo.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "show-1", got.ShowID)
}

func TestOrderRepo_GetMissing(t *testing.T) {
	repo := NewOrderRepo(store.NewMemory())
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestOrderRepo_ListByShow(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(store.NewMemory())
	require.NoError(t, repo.Create(ctx, newOrder("o-1", "show-1", 2)))
	require.NoError(t, repo.Create(ctx, newOrder("o-2", "show-1", 3)))
	require.NoError(t, repo.Create(ctx, newOrder("o-3", "show-2", 1)))

	orders, err := repo.ListByShow(ctx, "show-1")
	require.NoError(t, err)
	total := 0
	for _, o := range orders {
		total += o.TicketCount
	}
	assert.Len(t, orders, 2)
	assert.Equal(t, 5, total)

	orders, err = repo.ListByShow(ctx, "show-9")
	require.NoError(t, err)
	assert.Empty(t, orders)
}
