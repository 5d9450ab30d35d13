// Package rarity derives the reward tier label from quest progress.
package rarity

import "github.com/TheoAsp/happybox-go/internal/models"

// Catalog is the slice of the quest registry the classifier reads
type Catalog interface {
	TierQuests(tier int) []string
}

type rule struct {
	tier    models.RarityTier
	matches func(c Catalog, completed map[string]bool) bool
}

// Rules are ordered highest priority first and evaluated first-match-wins,
// replacing the cascading reassignment the logic grew out of. LEGENDARY
// (every tier-2 quest) outranks ULTRA_RARE (at least two tier-2 quests),
// which outranks the all-tier-2 RARE baseline.
var rules = []rule{
	{models.RarityLegendary, func(c Catalog, done map[string]bool) bool {
		return allComplete(c.TierQuests(2), done)
	}},
	{models.RarityUltraRare, func(c Catalog, done map[string]bool) bool {
		return countComplete(c.TierQuests(2), done) >= 2
	}},
	{models.RarityRare, func(c Catalog, done map[string]bool) bool {
		return allComplete(c.TierQuests(2), done)
	}},
	{models.RarityUncommon, func(c Catalog, done map[string]bool) bool {
		return allComplete(c.TierQuests(1), done)
	}},
}

// Classify re-derives the rarity tier from the completed set. Never cached:
// progress can change between calls.
func Classify(catalog Catalog, progress models.PlayerProgress) models.RarityTier {
	for _, r := range rules {
		if r.matches(catalog, progress.Completed) {
			return r.tier
		}
	}
	return models.RarityCommon
}

func allComplete(quests []string, done map[string]bool) bool {
	if len(quests) == 0 {
		return false
	}
	for _, id := range quests {
		if !done[id] {
			return false
		}
	}
	return true
}

func countComplete(quests []string, done map[string]bool) int {
	n := 0
	for _, id := range quests {
		if done[id] {
			n++
		}
	}
	return n
}
