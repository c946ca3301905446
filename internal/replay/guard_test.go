package replay

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

func TestMemoryGuardAcceptsFreshNonce(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	require.NoError(t, g.Reserve(1_000_000, "nonce-1"))
	g.Confirm("nonce-1")
}

func TestMemoryGuardFreshnessWindowBounds(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	cases := []struct {
		name      string
		timestamp uint64
		ok        bool
	}{
		{"exactly at past edge", 1_000_000 - 300, true},
		{"exactly at future edge", 1_000_000 + 300, true},
		{"one second too old", 1_000_000 - 301, false},
		{"one second too far ahead", 1_000_000 + 301, false},
		{"ancient", 400, false},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Reserve(tc.timestamp, fmt.Sprintf("nonce-%d", i))
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrReplay)
			}
		})
	}
}

func TestMemoryGuardRejectsOverflowingTimestamps(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_700_000_000)

	// Skews whose nanosecond representation wraps int64 must still read
	// as stale, not as in-window.
	cases := []struct {
		name      string
		timestamp uint64
	}{
		{"skew wraps via nanosecond conversion", 1_700_000_000 + 18_446_744_074},
		{"largest int64 timestamp", uint64(math.MaxInt64)},
		{"timestamp beyond int64 range", math.MaxUint64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Reserve(tc.timestamp, tc.name)
			require.ErrorIs(t, err, domain.ErrReplay)
			assert.Contains(t, err.Error(), "freshness window")
		})
	}
}

func TestMemoryGuardStaleTimestampBeatsDuplicateNonce(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	require.NoError(t, g.Reserve(1_000_000, "nonce-1"))
	g.Confirm("nonce-1")

	// A message that is both stale and a duplicate reports staleness.
	err := g.Reserve(1_000_000-400, "nonce-1")
	require.ErrorIs(t, err, domain.ErrReplay)
	assert.Contains(t, err.Error(), "freshness window")
}

func TestMemoryGuardRejectsConfirmedNonce(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	require.NoError(t, g.Reserve(1_000_000, "nonce-1"))
	g.Confirm("nonce-1")

	err := g.Reserve(1_000_000, "nonce-1")
	require.ErrorIs(t, err, domain.ErrReplay)
	assert.Contains(t, err.Error(), "nonce already used")
}

func TestMemoryGuardRejectsPendingNonce(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	require.NoError(t, g.Reserve(1_000_000, "nonce-1"))

	err := g.Reserve(1_000_000, "nonce-1")
	assert.ErrorIs(t, err, domain.ErrReplay)
}

func TestMemoryGuardReleaseAllowsRetry(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	require.NoError(t, g.Reserve(1_000_000, "nonce-1"))
	g.Release("nonce-1")

	assert.NoError(t, g.Reserve(1_000_000, "nonce-1"))
}

func TestMemoryGuardReleaseIgnoresConfirmedNonce(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	require.NoError(t, g.Reserve(1_000_000, "nonce-1"))
	g.Confirm("nonce-1")
	g.Release("nonce-1")

	assert.ErrorIs(t, g.Reserve(1_000_000, "nonce-1"), domain.ErrReplay)
}

func TestMemoryGuardConcurrentSameNonce(t *testing.T) {
	g := NewMemoryGuard()
	g.now = fixedClock(1_000_000)

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = g.Reserve(1_000_000, "contested")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.True(t, errors.Is(err, domain.ErrReplay))
		}
	}
	assert.Equal(t, 1, won)
}

func TestMemoryGuardEvictsStaleEntriesAtCapacity(t *testing.T) {
	g := newMemoryGuard(300*time.Second, 3)
	g.now = fixedClock(1_000_000)

	for i := 0; i < 3; i++ {
		nonce := fmt.Sprintf("old-%d", i)
		require.NoError(t, g.Reserve(1_000_000, nonce))
		g.Confirm(nonce)
	}

	// Move the clock past the freshness window; a fresh confirm that
	// overflows capacity sweeps out the now-stale entries.
	g.now = fixedClock(1_000_400)
	require.NoError(t, g.Reserve(1_000_400, "fresh"))
	g.Confirm("fresh")

	assert.Len(t, g.accepted, 1)
	_, kept := g.accepted["fresh"]
	assert.True(t, kept)

	// The evicted nonces are stale anyway, so replaying them still fails
	// on freshness.
	assert.ErrorIs(t, g.Reserve(1_000_000, "old-0"), domain.ErrReplay)
}

func TestMemoryGuardKeepsFreshEntriesWhenOverCapacity(t *testing.T) {
	g := newMemoryGuard(300*time.Second, 2)
	g.now = fixedClock(1_000_000)

	for i := 0; i < 3; i++ {
		nonce := fmt.Sprintf("fresh-%d", i)
		require.NoError(t, g.Reserve(1_000_000, nonce))
		g.Confirm(nonce)
	}

	// Nothing is stale, so nothing is evicted and duplicates still lose.
	assert.Len(t, g.accepted, 3)
	assert.ErrorIs(t, g.Reserve(1_000_000, "fresh-1"), domain.ErrReplay)
}
