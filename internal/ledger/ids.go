package ledger

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/oklog/ulid"

	"github.com/iliyamo/ticket-ledger/internal/clock"
)

// IDGenerator produces order identifiers.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator issues ULIDs: a millisecond timestamp followed by 80
// random bits. Within one generator, ids issued in the same millisecond
// increment the random part instead of drawing a new one, so they are
// strictly ordered and never repeat. Across processes uniqueness is
// probabilistic, which is why OrderRepo.Create still rejects duplicates.
type ULIDGenerator struct {
	mu      sync.Mutex
	clock   clock.Clock
	entropy io.Reader
}

// NewULIDGenerator returns a generator reading time from clk.
func NewULIDGenerator(clk clock.Clock) *ULIDGenerator {
	return &ULIDGenerator{
		clock:   clk,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.clock.Now()), g.entropy).String()
}
