// Package ledger owns per-player quest progress. Completion is monotonic:
// quests are never un-completed and the tier-2 unlock never reverses.
package ledger

import (
	"context"

	"github.com/TheoAsp/happybox-go/internal/models"
)

// Catalog is the slice of the quest registry the ledger needs for the
// synchronous tier unlock check
type Catalog interface {
	TierQuests(tier int) []string
}

// Ledger is the durable progress map. MarkComplete is idempotent: marking a
// quest that is already complete returns the same state, never an error.
type Ledger interface {
	// MarkComplete records the quest as done for the player, creating the
	// player lazily, storing the email when first supplied, and unlocking
	// tier 2 once every tier-1 quest is complete.
	MarkComplete(ctx context.Context, playerID, questID string, email *string) (models.PlayerProgress, error)
	// Get returns the player's progress; unseen players read as an empty
	// tier-1 state.
	Get(ctx context.Context, playerID string) (models.PlayerProgress, error)
}

func tierOneComplete(catalog Catalog, completed map[string]bool) bool {
	quests := catalog.TierQuests(1)
	if len(quests) == 0 {
		return false
	}
	for _, id := range quests {
		if !completed[id] {
			return false
		}
	}
	return true
}
