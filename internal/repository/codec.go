package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

const (
	showKeyPrefix  = "show:"
	orderKeyPrefix = "order:"
)

func showKey(id string) string  { return showKeyPrefix + id }
func orderKey(id string) string { return orderKeyPrefix + id }

// getJSON loads key into dst. It returns notFound when the key is absent.
func getJSON(ctx context.Context, s store.RecordStore, key string, dst any, notFound error) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound
		}
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return model.Persistence("decode "+key, err)
	}
	return nil
}

func encode(key string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, model.Persistence("encode "+key, err)
	}
	return raw, nil
}
