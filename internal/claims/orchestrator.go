// Package claims composes the registry, verifiers, abuse guard and ledger
// into the two claim flows. Each claim moves received → validated →
// abuse-checked → committed, with early rejection at every gate; the caller
// owns retries.
package claims

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/TheoAsp/happybox-go/internal/abuse"
	"github.com/TheoAsp/happybox-go/internal/geo"
	"github.com/TheoAsp/happybox-go/internal/ledger"
	"github.com/TheoAsp/happybox-go/internal/metrics"
	"github.com/TheoAsp/happybox-go/internal/models"
	"github.com/TheoAsp/happybox-go/internal/rarity"
	"github.com/TheoAsp/happybox-go/internal/registry"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Orchestrator wires the verification core together. Stateless: every
// invocation coordinates only through the guard's store and the ledger.
type Orchestrator struct {
	reg    *registry.Registry
	guard  *abuse.Guard
	ledger ledger.Ledger
}

// New builds an orchestrator
func New(reg *registry.Registry, guard *abuse.Guard, led ledger.Ledger) *Orchestrator {
	return &Orchestrator{reg: reg, guard: guard, ledger: led}
}

// Geofence handles a position claim. An outside-radius position is a valid
// negative outcome carried in the result, not an error.
func (o *Orchestrator) Geofence(ctx context.Context, req models.GeoClaimRequest, sourceAddr string) (models.GeoClaimResult, error) {
	var out models.GeoClaimResult

	if req.PlayerID == "" || req.Lat == nil || req.Lon == nil || req.CheckpointID == "" || req.QuestID == "" {
		return out, fmt.Errorf("%w: player_id, lat, lon, checkpoint_id and quest_id are required", ErrValidation)
	}

	cp, err := o.reg.Resolve(req.CheckpointID)
	if err != nil {
		return out, fmt.Errorf("%w: checkpoint %s", ErrNotFound, req.CheckpointID)
	}
	if cp.Kind != models.CheckpointGeo {
		return out, fmt.Errorf("%w: checkpoint %s is not a geofence", ErrNotFound, req.CheckpointID)
	}
	// Strict binding: only the quest's own checkpoint may satisfy it
	if err := o.reg.Bind(req.CheckpointID, req.QuestID); err != nil {
		if errors.Is(err, registry.ErrUnknownQuest) {
			return out, fmt.Errorf("%w: quest %s", ErrNotFound, req.QuestID)
		}
		return out, ErrVerificationFailed
	}

	if err := o.guard.ThrottleSource(ctx, sourceAddr); err != nil {
		metrics.ThrottleRejections.Inc()
		return out, ErrRateLimited
	}

	check := geo.Check(geo.Point{Lat: *req.Lat, Lon: *req.Lon}, cp)
	out.DistanceMeters = check.DistanceMeters
	out.RadiusMeters = check.RadiusMeters
	if !check.Inside {
		metrics.Claims.WithLabelValues("geo", "outside").Inc()
		return out, nil
	}

	progress, err := o.ledger.MarkComplete(ctx, req.PlayerID, req.QuestID, nil)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	tier := rarity.Classify(o.reg, progress)
	out.Accepted = true
	out.Progress = progress.Completed
	out.Tier = progress.Tier
	out.Rarity = &tier
	metrics.Claims.WithLabelValues("geo", "accepted").Inc()
	return out, nil
}

// Token handles a QR secret claim. Redemption acquisition happens before the
// ledger mutation so a crash in between is recoverable by releasing the lock,
// never by granting extra redemptions.
func (o *Orchestrator) Token(ctx context.Context, req models.TokenClaimRequest, sourceAddr string) (models.TokenClaimResult, error) {
	var out models.TokenClaimResult

	identity := abuse.NormalizeIdentity(req.IdentityKey)
	if req.PlayerID == "" || identity == "" || strings.TrimSpace(req.Secret) == "" || req.QuestID == "" {
		return out, fmt.Errorf("%w: player_id, identity_key, secret and quest_id are required", ErrValidation)
	}
	if !emailRegex.MatchString(identity) {
		return out, fmt.Errorf("%w: identity_key must be a valid email", ErrValidation)
	}

	slot, err := o.reg.ResolveSecret(req.Secret)
	if err != nil {
		metrics.Claims.WithLabelValues("token", "invalid_secret").Inc()
		return out, ErrVerificationFailed
	}
	if err := o.reg.Bind(slot, req.QuestID); err != nil {
		if errors.Is(err, registry.ErrUnknownQuest) {
			return out, fmt.Errorf("%w: quest %s", ErrNotFound, req.QuestID)
		}
		// Valid secret, wrong quest. Same face to the client as an
		// invalid secret.
		metrics.Claims.WithLabelValues("token", "wrong_slot").Inc()
		return out, ErrVerificationFailed
	}

	if err := o.guard.ThrottleSource(ctx, sourceAddr); err != nil {
		metrics.ThrottleRejections.Inc()
		return out, ErrRateLimited
	}
	if err := o.guard.CapSlot(ctx, slot); err != nil {
		metrics.Claims.WithLabelValues("token", "cap_exceeded").Inc()
		return out, ErrCapExceeded
	}

	if err := o.guard.AcquireRedemption(ctx, slot, identity); err != nil {
		switch {
		case errors.Is(err, abuse.ErrAlreadyRedeemed):
			metrics.Claims.WithLabelValues("token", "already_redeemed").Inc()
			return out, ErrAlreadyRedeemed
		default:
			return out, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		}
	}
	metrics.RedemptionLocks.Inc()

	progress, err := o.ledger.MarkComplete(ctx, req.PlayerID, req.QuestID, &identity)
	if err != nil {
		// The lock is held but nothing was committed; release it so the
		// player can retry.
		if relErr := o.guard.ReleaseRedemption(ctx, slot, identity); relErr != nil {
			log.Printf("failed to release redemption lock for slot %s: %v", slot, relErr)
		}
		return out, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	tier := rarity.Classify(o.reg, progress)
	out.Accepted = true
	out.ReceiptID = uuid.New()
	out.QuestID = req.QuestID
	out.Progress = progress.Completed
	out.Tier = progress.Tier
	out.Rarity = &tier
	metrics.Claims.WithLabelValues("token", "accepted").Inc()
	return out, nil
}

// Progress answers a progress query, re-deriving rarity on every call
func (o *Orchestrator) Progress(ctx context.Context, playerID string) (models.ProgressSummary, error) {
	if playerID == "" {
		return models.ProgressSummary{}, fmt.Errorf("%w: player_id is required", ErrValidation)
	}
	progress, err := o.ledger.Get(ctx, playerID)
	if err != nil {
		return models.ProgressSummary{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return models.ProgressSummary{
		PlayerID:  playerID,
		Tier:      progress.Tier,
		Completed: progress.Completed,
		Rarity:    rarity.Classify(o.reg, progress),
	}, nil
}

// ManualAward marks a quest complete without verification. The handler layer
// gates this behind the admin capability; the orchestrator only checks the
// quest exists.
func (o *Orchestrator) ManualAward(ctx context.Context, playerID, questID string) (models.ProgressSummary, error) {
	if playerID == "" || questID == "" {
		return models.ProgressSummary{}, fmt.Errorf("%w: player_id and quest_id are required", ErrValidation)
	}
	if _, err := o.reg.Quest(questID); err != nil {
		return models.ProgressSummary{}, fmt.Errorf("%w: quest %s", ErrNotFound, questID)
	}
	progress, err := o.ledger.MarkComplete(ctx, playerID, questID, nil)
	if err != nil {
		return models.ProgressSummary{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return models.ProgressSummary{
		PlayerID:  playerID,
		Tier:      progress.Tier,
		Completed: progress.Completed,
		Rarity:    rarity.Classify(o.reg, progress),
	}, nil
}
