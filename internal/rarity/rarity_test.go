package rarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheoAsp/happybox-go/internal/models"
)

type stubCatalog struct {
	tiers map[int][]string
}

func (s stubCatalog) TierQuests(tier int) []string { return s.tiers[tier] }

var catalog = stubCatalog{tiers: map[int][]string{
	1: {"t1_1", "t1_2"},
	2: {"t2_1", "t2_2", "t2_3"},
}}

func progressWith(quests ...string) models.PlayerProgress {
	p := models.NewPlayerProgress("p1")
	for _, q := range quests {
		p.Completed[q] = true
	}
	return p
}

func TestClassifyLadder(t *testing.T) {
	tests := []struct {
		name      string
		completed []string
		want      models.RarityTier
	}{
		{"nothing", nil, models.RarityCommon},
		{"partial tier 1", []string{"t1_1"}, models.RarityCommon},
		{"all tier 1", []string{"t1_1", "t1_2"}, models.RarityUncommon},
		{"one tier 2", []string{"t1_1", "t1_2", "t2_1"}, models.RarityUncommon},
		{"two tier 2", []string{"t1_1", "t1_2", "t2_1", "t2_2"}, models.RarityUltraRare},
		{"all tier 2", []string{"t1_1", "t1_2", "t2_1", "t2_2", "t2_3"}, models.RarityLegendary},
		// Tier 2 alone is enough for the tier-2 rules
		{"two tier 2 only", []string{"t2_1", "t2_3"}, models.RarityUltraRare},
		{"all tier 2 only", []string{"t2_1", "t2_2", "t2_3"}, models.RarityLegendary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(catalog, progressWith(tt.completed...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyMonotonicInTierTwo(t *testing.T) {
	// Completing strictly more tier-2 quests never decreases the tier
	sequence := []string{"t2_1", "t2_2", "t2_3"}
	prev := Classify(catalog, progressWith("t1_1", "t1_2"))
	done := []string{"t1_1", "t1_2"}
	for _, q := range sequence {
		done = append(done, q)
		got := Classify(catalog, progressWith(done...))
		assert.GreaterOrEqual(t, int(got), int(prev))
		prev = got
	}
}

func TestLegendaryOutranksUltraRare(t *testing.T) {
	// All three tier-2 quests satisfy both the >=2 rule and the all rule;
	// the all rule wins.
	got := Classify(catalog, progressWith("t2_1", "t2_2", "t2_3"))
	assert.Equal(t, models.RarityLegendary, got)
}

func TestClassifyEmptyTierTwoCatalog(t *testing.T) {
	sparse := stubCatalog{tiers: map[int][]string{1: {"t1_1"}}}
	assert.Equal(t, models.RarityUncommon, Classify(sparse, progressWith("t1_1")))
	assert.Equal(t, models.RarityCommon, Classify(sparse, progressWith()))
}
