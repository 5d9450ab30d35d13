package models

import "github.com/google/uuid"

// GeoClaimRequest is the request body for a geofence claim
type GeoClaimRequest struct {
	PlayerID     string   `json:"player_id"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	CheckpointID string   `json:"checkpoint_id"`
	QuestID      string   `json:"quest_id"`
}

// TokenClaimRequest is the request body for a QR token claim.
// Lat/Lon are optional and informational only.
type TokenClaimRequest struct {
	PlayerID    string   `json:"player_id"`
	IdentityKey string   `json:"identity_key"`
	Secret      string   `json:"secret"`
	QuestID     string   `json:"quest_id"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// GeoClaimResult is the orchestrator's verdict on a geofence claim
type GeoClaimResult struct {
	Accepted       bool            `json:"accepted"`
	DistanceMeters int             `json:"distance_meters"`
	RadiusMeters   int             `json:"radius_meters"`
	Progress       map[string]bool `json:"progress,omitempty"`
	Tier           int             `json:"tier,omitempty"`
	Rarity         *RarityTier     `json:"rarity,omitempty"`
}

// TokenClaimResult is the orchestrator's verdict on a token claim.
// It deliberately never names the checkpoint or slot that matched.
type TokenClaimResult struct {
	Accepted  bool            `json:"accepted"`
	ReceiptID uuid.UUID       `json:"receipt_id"`
	QuestID   string          `json:"quest_id"`
	Progress  map[string]bool `json:"progress,omitempty"`
	Tier      int             `json:"tier,omitempty"`
	Rarity    *RarityTier     `json:"rarity,omitempty"`
}

// ProgressSummary is the response for a progress query
type ProgressSummary struct {
	PlayerID  string          `json:"player_id"`
	Tier      int             `json:"tier"`
	Completed map[string]bool `json:"completed"`
	Rarity    RarityTier      `json:"rarity"`
}
