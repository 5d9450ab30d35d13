package issuance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheoAsp/happybox-go/internal/abuse"
	"github.com/TheoAsp/happybox-go/internal/ledger"
	"github.com/TheoAsp/happybox-go/internal/models"
	"github.com/TheoAsp/happybox-go/internal/store"
)

type stubCatalog struct {
	tiers map[int][]string
}

func (s stubCatalog) TierQuests(tier int) []string { return s.tiers[tier] }

type stubMinter struct {
	calls []MintRequest
	fail  bool
}

func (m *stubMinter) Mint(_ context.Context, req MintRequest) (MintResult, error) {
	m.calls = append(m.calls, req)
	if m.fail {
		return MintResult{}, errors.New("provider rejected")
	}
	return MintResult{TemplateID: "TPL_TEST_1"}, nil
}

func newAwardFixture(t *testing.T, minter Minter) (*Awarder, ledger.Ledger, *abuse.Guard) {
	t.Helper()
	catalog := stubCatalog{tiers: map[int][]string{
		1: {"t1_1", "t1_2"},
		2: {"t2_1", "t2_2", "t2_3"},
	}}
	guard := abuse.NewGuard(store.NewMemory(), abuse.Options{
		ThrottleWindow: time.Minute,
		ThrottleMax:    100,
		SlotDailyCap:   100,
	})
	led := ledger.NewMemory(catalog)
	return NewAwarder(guard, led, catalog, minter), led, guard
}

func TestAwardSuccess(t *testing.T) {
	minter := &stubMinter{}
	awarder, led, _ := newAwardFixture(t, minter)
	ctx := context.Background()

	_, err := led.MarkComplete(ctx, "p1", "t1_1", nil)
	require.NoError(t, err)
	_, err = led.MarkComplete(ctx, "p1", "t1_2", nil)
	require.NoError(t, err)

	result, err := awarder.Award(ctx, "p1", "Alice@Example.com")
	require.NoError(t, err)

	assert.Equal(t, models.RarityUncommon, result.Rarity)
	assert.Equal(t, "TPL_TEST_1", result.TemplateID)
	require.Len(t, minter.calls, 1)
	assert.Equal(t, "alice@example.com", minter.calls[0].IdentityKey)
	assert.Equal(t, 2, minter.calls[0].Stage)
	assert.Equal(t, 2, minter.calls[0].Completed)
}

func TestAwardOncePerIdentity(t *testing.T) {
	minter := &stubMinter{}
	awarder, led, _ := newAwardFixture(t, minter)
	ctx := context.Background()

	_, err := led.MarkComplete(ctx, "p1", "t1_1", nil)
	require.NoError(t, err)

	_, err = awarder.Award(ctx, "p1", "alice@example.com")
	require.NoError(t, err)

	_, err = awarder.Award(ctx, "p1", "ALICE@example.com")
	assert.ErrorIs(t, err, ErrAlreadyAwarded)
	assert.Len(t, minter.calls, 1)
}

func TestAwardReleasesLockOnMintFailure(t *testing.T) {
	minter := &stubMinter{fail: true}
	awarder, led, _ := newAwardFixture(t, minter)
	ctx := context.Background()

	_, err := led.MarkComplete(ctx, "p1", "t1_1", nil)
	require.NoError(t, err)

	_, err = awarder.Award(ctx, "p1", "alice@example.com")
	assert.ErrorIs(t, err, ErrIssuanceFailed)

	// The compensation ran, so a retry reaches the provider again
	minter.fail = false
	result, err := awarder.Award(ctx, "p1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "TPL_TEST_1", result.TemplateID)
	assert.Len(t, minter.calls, 2)
}

func TestAwardNothingCompleted(t *testing.T) {
	minter := &stubMinter{}
	awarder, _, _ := newAwardFixture(t, minter)

	_, err := awarder.Award(context.Background(), "ghost", "alice@example.com")
	assert.ErrorIs(t, err, ErrNothingToAward)
	assert.Empty(t, minter.calls)
}
