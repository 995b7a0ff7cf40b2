package lock

import (
	"context"
	"sync"
)

// Table is an in-process Locker: one mutex per key, created on demand and
// dropped again once nobody holds or waits for it. It only serialises
// callers inside a single process; use Redis when several server
// instances share a record store.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// sem has capacity one: a successful send means the key is held.
	sem  chan struct{}
	refs int
}

// NewTable returns an empty lock table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*entry)}
}

func (t *Table) Lock(ctx context.Context, key string) (Unlock, error) {
	e := t.acquireRef(key)
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		t.releaseRef(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			<-e.sem
			t.releaseRef(key, e)
		})
		return nil
	}, nil
}

// Len reports how many keys are currently held or waited on.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Table) acquireRef(key string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		t.entries[key] = e
	}
	e.refs++
	return e
}

func (t *Table) releaseRef(key string, e *entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(t.entries, key)
	}
}
