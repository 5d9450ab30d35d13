package models

// RarityTier is the derived label summarizing a player's completion breadth.
// Always re-computed from PlayerProgress, never stored.
type RarityTier int

const (
	RarityCommon RarityTier = iota
	RarityUncommon
	RarityRare
	RarityUltraRare
	RarityLegendary
)

var rarityNames = map[RarityTier]string{
	RarityCommon:    "COMMON",
	RarityUncommon:  "UNCOMMON",
	RarityRare:      "RARE",
	RarityUltraRare: "ULTRA_RARE",
	RarityLegendary: "LEGENDARY",
}

func (r RarityTier) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return "COMMON"
}

// MarshalJSON renders the tier as its label
func (r RarityTier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}
