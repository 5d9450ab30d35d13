// Package abuse provides the cross-instance redemption locks, throttles and
// caps. Handlers share no process memory, so every guarantee here is an
// atomic operation against the external store.
package abuse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/TheoAsp/happybox-go/internal/store"
)

var (
	ErrAlreadyRedeemed  = errors.New("already redeemed")
	ErrRateLimited      = errors.New("rate limited")
	ErrCapExceeded      = errors.New("daily cap exceeded")
	ErrStoreUnavailable = errors.New("redemption store unavailable")
)

// Guard wraps the KV store with the service's abuse-control policies
type Guard struct {
	kv store.Store

	throttleWindow time.Duration
	throttleMax    int64
	slotDailyCap   int64

	now func() time.Time
}

// Options tunes the guard; zero values fall back to conservative defaults
type Options struct {
	ThrottleWindow time.Duration
	ThrottleMax    int
	SlotDailyCap   int
}

// NewGuard builds a guard over the given store
func NewGuard(kv store.Store, opts Options) *Guard {
	g := &Guard{
		kv:             kv,
		throttleWindow: opts.ThrottleWindow,
		throttleMax:    int64(opts.ThrottleMax),
		slotDailyCap:   int64(opts.SlotDailyCap),
		now:            time.Now,
	}
	if g.throttleWindow <= 0 {
		g.throttleWindow = time.Minute
	}
	if g.throttleMax <= 0 {
		g.throttleMax = 30
	}
	if g.slotDailyCap <= 0 {
		g.slotDailyCap = 500
	}
	return g
}

// SetClock overrides the time source (tests only)
func (g *Guard) SetClock(now func() time.Time) { g.now = now }

// NormalizeIdentity lower-cases and trims an identity key so the same email
// always maps to the same lock
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// AcquireRedemption takes the write-once per-identity-per-slot lock. Exactly
// one concurrent caller wins; the store's set-if-absent is the only thing
// that makes that true, so this must stay a single conditional write. If the
// store cannot be reached the claim is rejected: no double redemption
// outranks availability.
func (g *Guard) AcquireRedemption(ctx context.Context, slotID, identityKey string) error {
	key := redemptionKey(slotID, identityKey)
	created, err := g.kv.SetIfAbsent(ctx, key, strconv.FormatInt(g.now().UnixMilli(), 10), 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !created {
		return ErrAlreadyRedeemed
	}
	return nil
}

// ReleaseRedemption deletes the lock so the player can retry after a failed
// downstream step. Safe to call twice; this is the compensation half of the
// acquire → attempt → compensate saga and the one legitimate delete here.
func (g *Guard) ReleaseRedemption(ctx context.Context, slotID, identityKey string) error {
	if err := g.kv.Delete(ctx, redemptionKey(slotID, identityKey)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Redeemed reports whether the lock already exists, without touching it
func (g *Guard) Redeemed(ctx context.Context, slotID, identityKey string) (bool, error) {
	_, err := g.kv.Get(ctx, redemptionKey(slotID, identityKey))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}

// ThrottleSource rate-limits by caller address on a fixed window. The
// increment is not rolled back when over the limit: probing keeps consuming
// the prober's own budget. A store failure fails open; this is a secondary
// defense, not the redemption guarantee.
func (g *Guard) ThrottleSource(ctx context.Context, sourceAddr string) error {
	sourceAddr = strings.TrimSpace(sourceAddr)
	if sourceAddr == "" {
		return nil
	}
	bucket := g.now().Unix() / int64(g.throttleWindow/time.Second)
	key := fmt.Sprintf("throttle:%s:%d", sourceAddr, bucket)
	count, err := g.kv.IncrementWithExpiry(ctx, key, g.throttleWindow)
	if err != nil {
		log.Printf("throttle check failed open for %s: %v", sourceAddr, err)
		return nil
	}
	if count > g.throttleMax {
		return ErrRateLimited
	}
	return nil
}

// RetryAfter is the hint handed to throttled clients
func (g *Guard) RetryAfter() time.Duration { return g.throttleWindow }

// CapSlot enforces the per-checkpoint daily redemption ceiling, the brake
// on a leaked token being redeemed by unbounded distinct identities. Fails
// open on store errors, same as the throttle.
func (g *Guard) CapSlot(ctx context.Context, slotID string) error {
	day := g.now().UTC().Format("2006-01-02")
	key := fmt.Sprintf("slotcap:%s:%s", slotID, day)
	count, err := g.kv.IncrementWithExpiry(ctx, key, 24*time.Hour)
	if err != nil {
		log.Printf("slot cap check failed open for %s: %v", slotID, err)
		return nil
	}
	if count > g.slotDailyCap {
		return ErrCapExceeded
	}
	return nil
}

// AcquireMint takes the one-reward-per-identity lock used by the award saga
func (g *Guard) AcquireMint(ctx context.Context, identityKey string) error {
	key := mintKey(identityKey)
	created, err := g.kv.SetIfAbsent(ctx, key, strconv.FormatInt(g.now().UnixMilli(), 10), 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !created {
		return ErrAlreadyRedeemed
	}
	return nil
}

// ReleaseMint compensates a failed issuance attempt. Idempotent.
func (g *Guard) ReleaseMint(ctx context.Context, identityKey string) error {
	if err := g.kv.Delete(ctx, mintKey(identityKey)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func redemptionKey(slotID, identityKey string) string {
	return fmt.Sprintf("qrused:%s:%s", slotID, NormalizeIdentity(identityKey))
}

func mintKey(identityKey string) string {
	return fmt.Sprintf("minted:%s", NormalizeIdentity(identityKey))
}
