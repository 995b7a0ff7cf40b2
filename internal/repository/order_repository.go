package repository

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

// OrderRepo persists orders under "order:<id>". Orders are written once
// and never updated, so reads need no coordination.
type OrderRepo struct {
	store store.RecordStore
}

// NewOrderRepo constructs an OrderRepo on top of the given record store.
func NewOrderRepo(s store.RecordStore) *OrderRepo {
	if s == nil {
		panic("nil record store passed to NewOrderRepo")
	}
	return &OrderRepo{store: s}
}

// Create writes a new order. It never overwrites: if a record already
// exists under o.ID it returns ErrOrderExists and leaves the existing
// order untouched.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	key := orderKey(o.ID)
	raw, err := encode(key, o)
	if err != nil {
		return err
	}
	ok, err := r.store.PutIfAbsent(ctx, key, raw)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderExists
	}
	return nil
}

// GetByID returns the order or ErrOrderNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	if err := getJSON(ctx, r.store, orderKey(id), &o, ErrOrderNotFound); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByShow returns all orders placed against showID. It scans every
// order record, so it is meant for audits rather than request paths.
func (r *OrderRepo) ListByShow(ctx context.Context, showID string) ([]model.Order, error) {
	raws, err := r.store.ScanPrefix(ctx, orderKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, 0)
	for _, raw := range raws {
		var o model.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, model.Persistence("decode order", err)
		}
		if o.ShowID == showID {
			out = append(out, o)
		}
	}
	return out, nil
}
