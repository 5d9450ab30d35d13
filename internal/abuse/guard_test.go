package abuse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheoAsp/happybox-go/internal/store"
)

// downStore simulates an unreachable coordination store
type downStore struct{}

func (downStore) Get(context.Context, string) (string, error) {
	return "", store.ErrUnavailable
}
func (downStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, store.ErrUnavailable
}
func (downStore) IncrementWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 0, store.ErrUnavailable
}
func (downStore) Delete(context.Context, string) error {
	return store.ErrUnavailable
}

func newTestGuard() *Guard {
	return NewGuard(store.NewMemory(), Options{
		ThrottleWindow: time.Minute,
		ThrottleMax:    3,
		SlotDailyCap:   5,
	})
}

func TestAcquireRedemptionOnce(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard()

	require.NoError(t, g.AcquireRedemption(ctx, "S2A", "Alice@Example.com"))

	// Same identity, any casing: already redeemed
	err := g.AcquireRedemption(ctx, "S2A", "alice@example.com")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)

	// Different slot or identity is unaffected
	assert.NoError(t, g.AcquireRedemption(ctx, "S2B", "alice@example.com"))
	assert.NoError(t, g.AcquireRedemption(ctx, "S2A", "bob@example.com"))
}

func TestAcquireRedemptionConcurrent(t *testing.T) {
	const n = 64
	ctx := context.Background()
	g := newTestGuard()

	var acquired, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.AcquireRedemption(ctx, "S2A", "alice@example.com")
			switch {
			case err == nil:
				acquired.Add(1)
			case errors.Is(err, ErrAlreadyRedeemed):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	// Exactly one caller wins, everyone else sees AlreadyRedeemed
	assert.Equal(t, int64(1), acquired.Load())
	assert.Equal(t, int64(n-1), rejected.Load())
}

func TestReleaseRedemption(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard()

	require.NoError(t, g.AcquireRedemption(ctx, "S2A", "alice@example.com"))
	require.NoError(t, g.ReleaseRedemption(ctx, "S2A", "alice@example.com"))
	// Compensation is idempotent
	require.NoError(t, g.ReleaseRedemption(ctx, "S2A", "alice@example.com"))

	// Retry after rollback succeeds
	assert.NoError(t, g.AcquireRedemption(ctx, "S2A", "alice@example.com"))
}

func TestAcquireRedemptionFailsClosed(t *testing.T) {
	g := NewGuard(downStore{}, Options{})
	err := g.AcquireRedemption(context.Background(), "S2A", "alice@example.com")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestThrottleSource(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard()
	// Pin the clock so the window cannot roll over mid-test
	fixed := time.Date(2026, 8, 1, 12, 0, 30, 0, time.UTC)
	g.SetClock(func() time.Time { return fixed })

	for i := 0; i < 3; i++ {
		assert.NoError(t, g.ThrottleSource(ctx, "10.0.0.1"))
	}
	assert.ErrorIs(t, g.ThrottleSource(ctx, "10.0.0.1"), ErrRateLimited)

	// The rejected attempt still consumed budget
	assert.ErrorIs(t, g.ThrottleSource(ctx, "10.0.0.1"), ErrRateLimited)

	// Other sources keep their own budget
	assert.NoError(t, g.ThrottleSource(ctx, "10.0.0.2"))

	// Blank source (no address known) is not throttled
	assert.NoError(t, g.ThrottleSource(ctx, ""))
}

func TestThrottleWindowRollover(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	g := NewGuard(kv, Options{ThrottleWindow: time.Minute, ThrottleMax: 1, SlotDailyCap: 5})

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }
	g.SetClock(clock)
	kv.SetClock(clock)

	require.NoError(t, g.ThrottleSource(ctx, "10.0.0.1"))
	require.ErrorIs(t, g.ThrottleSource(ctx, "10.0.0.1"), ErrRateLimited)

	now = base.Add(2 * time.Minute)
	assert.NoError(t, g.ThrottleSource(ctx, "10.0.0.1"))
}

func TestThrottleFailsOpen(t *testing.T) {
	g := NewGuard(downStore{}, Options{})
	assert.NoError(t, g.ThrottleSource(context.Background(), "10.0.0.1"))
}

func TestCapSlot(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard()

	for i := 0; i < 5; i++ {
		assert.NoError(t, g.CapSlot(ctx, "S2A"))
	}
	assert.ErrorIs(t, g.CapSlot(ctx, "S2A"), ErrCapExceeded)

	// Other slots are scoped separately
	assert.NoError(t, g.CapSlot(ctx, "S2B"))
}

func TestCapSlotFailsOpen(t *testing.T) {
	g := NewGuard(downStore{}, Options{})
	assert.NoError(t, g.CapSlot(context.Background(), "S2A"))
}

func TestMintLock(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard()

	require.NoError(t, g.AcquireMint(ctx, "Alice@Example.com"))
	assert.ErrorIs(t, g.AcquireMint(ctx, "alice@example.com"), ErrAlreadyRedeemed)

	require.NoError(t, g.ReleaseMint(ctx, "alice@example.com"))
	assert.NoError(t, g.AcquireMint(ctx, "alice@example.com"))
}

func TestRedeemed(t *testing.T) {
	ctx := context.Background()
	g := newTestGuard()

	held, err := g.Redeemed(ctx, "S2A", "alice@example.com")
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, g.AcquireRedemption(ctx, "S2A", "alice@example.com"))
	held, err = g.Redeemed(ctx, "S2A", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, held)
}
