package replay

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

const defaultFreshnessWindow = 300 * time.Second
const defaultCapacity = 10_000

// Guard rejects stale timestamps and previously seen nonces. A nonce is
// first reserved, then either confirmed once the whole ingestion pipeline
// succeeds or released when a later stage fails, so a corrected resend of
// a failed message is not falsely replay-rejected. Implementations can be
// swapped for a shared store in a multi-instance deployment.
type Guard interface {
	Reserve(timestamp uint64, nonce string) error
	Confirm(nonce string)
	Release(nonce string)
}

// MemoryGuard is the single-process implementation. The check-and-insert
// is one critical section: two concurrent messages with the same nonce
// cannot both pass.
type MemoryGuard struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	now      func() time.Time
	accepted map[string]uint64
	pending  map[string]uint64
}

func NewMemoryGuard() *MemoryGuard {
	return newMemoryGuard(defaultFreshnessWindow, defaultCapacity)
}

func newMemoryGuard(window time.Duration, capacity int) *MemoryGuard {
	return &MemoryGuard{
		window:   window,
		capacity: capacity,
		now:      time.Now,
		accepted: make(map[string]uint64),
		pending:  make(map[string]uint64),
	}
}

// Reserve checks freshness first, then nonce uniqueness, preserving the
// timestamp-before-nonce error precedence.
func (g *MemoryGuard) Reserve(timestamp uint64, nonce string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Compare in whole seconds: converting the skew to a Duration would
	// multiply by 1e9 and wrap int64 for far-future timestamps, letting
	// them slip back inside the window.
	if timestamp > math.MaxInt64 {
		return fmt.Errorf("%w: timestamp %d outside freshness window", domain.ErrReplay, timestamp)
	}
	now := g.now().UTC().Unix()
	skew := now - int64(timestamp)
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(g.window/time.Second) {
		return fmt.Errorf("%w: timestamp %d outside freshness window", domain.ErrReplay, timestamp)
	}

	if _, seen := g.accepted[nonce]; seen {
		return fmt.Errorf("%w: nonce already used", domain.ErrReplay)
	}
	if _, seen := g.pending[nonce]; seen {
		return fmt.Errorf("%w: nonce already used", domain.ErrReplay)
	}

	g.pending[nonce] = timestamp
	return nil
}

func (g *MemoryGuard) Confirm(nonce string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp, ok := g.pending[nonce]
	if !ok {
		return
	}
	delete(g.pending, nonce)
	g.accepted[nonce] = timestamp

	if len(g.accepted) > g.capacity {
		g.evictStaleLocked()
	}
}

func (g *MemoryGuard) Release(nonce string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, nonce)
}

// evictStaleLocked drops nonces whose timestamp has left the freshness
// window. Those messages can never replay successfully anyway, so this
// bounds memory without reopening a replay hole.
func (g *MemoryGuard) evictStaleLocked() {
	now := g.now().UTC().Unix()
	horizon := int64(g.window / time.Second)

	for nonce, timestamp := range g.accepted {
		skew := now - int64(timestamp)
		if skew < 0 {
			skew = -skew
		}
		if skew > horizon {
			delete(g.accepted, nonce)
		}
	}
}
