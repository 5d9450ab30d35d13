package issuance

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/TheoAsp/happybox-go/internal/abuse"
	"github.com/TheoAsp/happybox-go/internal/ledger"
	"github.com/TheoAsp/happybox-go/internal/metrics"
	"github.com/TheoAsp/happybox-go/internal/models"
	"github.com/TheoAsp/happybox-go/internal/rarity"
)

var (
	ErrAlreadyAwarded   = errors.New("reward already issued for this identity")
	ErrIssuanceFailed   = errors.New("reward issuance failed")
	ErrAwardUnavailable = errors.New("award service unavailable")
	ErrNothingToAward   = errors.New("no completed quests to award")
)

// AwardResult reports a completed issuance
type AwardResult struct {
	Rarity     models.RarityTier `json:"rarity"`
	TemplateID string            `json:"template_id"`
}

// Awarder runs the acquire → mint → compensate saga. The lock acquisition is
// the primary duplicate guard; the collaborator's own idempotency is backup.
type Awarder struct {
	guard   *abuse.Guard
	ledger  ledger.Ledger
	catalog rarity.Catalog
	minter  Minter
}

// NewAwarder builds an awarder
func NewAwarder(guard *abuse.Guard, led ledger.Ledger, catalog rarity.Catalog, minter Minter) *Awarder {
	return &Awarder{guard: guard, ledger: led, catalog: catalog, minter: minter}
}

// Award issues one reward per identity for the player's current rarity.
// Acquisition happens before the mint call; a mint failure releases the lock
// so the player can retry. The compensation is idempotent and safe to run
// twice.
func (a *Awarder) Award(ctx context.Context, playerID, identityKey string) (AwardResult, error) {
	identity := abuse.NormalizeIdentity(identityKey)

	progress, err := a.ledger.Get(ctx, playerID)
	if err != nil {
		return AwardResult{}, fmt.Errorf("%w: %v", ErrAwardUnavailable, err)
	}
	completed := len(progress.CompletedIDs())
	if completed == 0 {
		return AwardResult{}, ErrNothingToAward
	}
	tier := rarity.Classify(a.catalog, progress)

	if err := a.guard.AcquireMint(ctx, identity); err != nil {
		if errors.Is(err, abuse.ErrAlreadyRedeemed) {
			return AwardResult{}, ErrAlreadyAwarded
		}
		return AwardResult{}, fmt.Errorf("%w: %v", ErrAwardUnavailable, err)
	}

	result, err := a.minter.Mint(ctx, MintRequest{
		IdentityKey: identity,
		Rarity:      tier,
		Stage:       progress.Tier,
		Completed:   completed,
	})
	if err != nil {
		metrics.IssuanceAttempts.WithLabelValues("failed").Inc()
		if relErr := a.guard.ReleaseMint(ctx, identity); relErr != nil {
			log.Printf("failed to release mint lock for %s: %v", identity, relErr)
		}
		return AwardResult{}, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	metrics.IssuanceAttempts.WithLabelValues("ok").Inc()
	return AwardResult{Rarity: tier, TemplateID: result.TemplateID}, nil
}
