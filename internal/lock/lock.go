// Package lock provides per-key exclusive access. The ledger takes the
// lock named after a show id around its read-check-write of that show's
// inventory; different keys never block each other.
package lock

import "context"

// Unlock releases a held lock. It is safe to call once.
type Unlock func() error

// Locker hands out exclusive access to a key. Lock blocks until the key is
// free or ctx is done; in the latter case it returns ctx.Err() and holds
// nothing.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
