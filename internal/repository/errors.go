// Package repository maps catalog and order records onto a
// store.RecordStore. These sentinel values let the ledger and handlers
// tell missing records apart from storage failures: the not-found errors
// match model.ErrNotFound, everything coming out of the store matches
// model.ErrPersistence.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// ErrShowNotFound is returned when no show exists under the given id.
var ErrShowNotFound = fmt.Errorf("show %w", model.ErrNotFound)

// ErrOrderNotFound is returned when no order exists under the given id.
var ErrOrderNotFound = fmt.Errorf("order %w", model.ErrNotFound)

// ErrShowExists is returned by ShowRepo.Create when the id is taken.
var ErrShowExists = errors.New("show already exists")

// ErrOrderExists is returned by OrderRepo.Create when another order was
// already written under the same id. The ledger treats it as an id
// collision and retries with a fresh id.
var ErrOrderExists = errors.New("order id already exists")

// ErrInventoryOutOfRange guards UpdateInventory against values outside
// [0, capacity].
var ErrInventoryOutOfRange = errors.New("tickets remaining out of range")
