// Package store is the key-value persistence substrate for catalog and
// order records. A RecordStore offers single-key reads and writes and a
// prefix scan; it has no multi-key transactions. Callers that need
// check-then-write atomicity serialise access themselves (see package lock).
//
// Every backend reports I/O failures wrapped with model.ErrPersistence
// and does not retry them.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("record not found")

// RecordStore is implemented by Memory, MySQL and Redis.
type RecordStore interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// PutIfAbsent stores value only when key does not exist yet and
	// reports whether it did.
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	// ScanPrefix returns every value whose key starts with prefix, in no
	// particular order.
	ScanPrefix(ctx context.Context, prefix string) ([][]byte, error)
}

func ioErr(op, key string, err error) error {
	return model.Persistence(fmt.Sprintf("%s %q", op, key), err)
}
