package testutil

import (
	"strconv"
	"sync"
	"time"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// Epoch is where FixedClock starts. Manifests stamped on it read
// "created": "2024-01-15T10:30:00Z".
var Epoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// StubClock is a zs.Clock that only moves when a test advances it, so
// manifest creation times and ledger timestamps are predictable.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ zs.Clock = (*StubClock)(nil)

// NewStubClock creates a StubClock reading t in UTC.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t.UTC()}
}

// FixedClock returns a StubClock set to Epoch.
func FixedClock() *StubClock {
	return NewStubClock(Epoch)
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, typically the gap between a
// deposition and its next version.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubRunIDs hands out ledger run IDs in order: "run-1", "run-2", ...
type StubRunIDs struct {
	mu     sync.Mutex
	issued []string
}

var _ zs.IDGenerator = (*StubRunIDs)(nil)

func NewStubRunIDs() *StubRunIDs {
	return &StubRunIDs{}
}

func (g *StubRunIDs) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "run-" + strconv.Itoa(len(g.issued)+1)
	g.issued = append(g.issued, id)
	return id
}

// Issued returns every run ID handed out so far.
func (g *StubRunIDs) Issued() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.issued...)
}
