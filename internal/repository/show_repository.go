package repository

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

// ShowRepo is the catalog repository. Shows live under "show:<id>".
type ShowRepo struct {
	store store.RecordStore
}

// NewShowRepo constructs a ShowRepo on top of the given record store.
func NewShowRepo(s store.RecordStore) *ShowRepo {
	if s == nil {
		panic("nil record store passed to NewShowRepo")
	}
	return &ShowRepo{store: s}
}

// Create writes a new show. It fails with ErrShowExists when the id is
// already taken, and with a validation error when capacity, remaining
// tickets or price are inconsistent.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	switch {
	case s.ID == "":
		return &model.ValidationError{Field: "id", Reason: "is required"}
	case s.Capacity <= 0:
		return &model.ValidationError{Field: "capacity", Reason: "must be positive"}
	case s.TicketsRemaining < 0 || s.TicketsRemaining > s.Capacity:
		return &model.ValidationError{Field: "availableTickets", Reason: "must be between 0 and capacity"}
	case s.UnitPrice.IsNegative():
		return &model.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	key := showKey(s.ID)
	raw, err := encode(key, s)
	if err != nil {
		return err
	}
	ok, err := r.store.PutIfAbsent(ctx, key, raw)
	if err != nil {
		return err
	}
	if !ok {
		return ErrShowExists
	}
	return nil
}

// GetByID retrieves a show by its id. It returns ErrShowNotFound if
// there is no matching record.
func (r *ShowRepo) GetByID(ctx context.Context, id string) (*model.Show, error) {
	var s model.Show
	if err := getJSON(ctx, r.store, showKey(id), &s, ErrShowNotFound); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns every show in the catalog, in no particular order. When
// the catalog is empty it returns an empty slice and nil error.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
	raws, err := r.store.ScanPrefix(ctx, showKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.Show, 0, len(raws))
	for _, raw := range raws {
		var s model.Show
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, model.Persistence("decode show", err)
		}
		out = append(out, s)
	}
	return out, nil
}

// UpdateInventory overwrites the remaining ticket count of a show.
//
// The write is unconditional: it reads the record, replaces
// TicketsRemaining and stores it back. Two concurrent callers can
// therefore lose each other's update, and callers must hold the show's
// lock around their read-check-write sequence.
func (r *ShowRepo) UpdateInventory(ctx context.Context, id string, remaining int) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if remaining < 0 || remaining > s.Capacity {
		return ErrInventoryOutOfRange
	}
	s.TicketsRemaining = remaining
	key := showKey(id)
	raw, err := encode(key, s)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, key, raw)
}
