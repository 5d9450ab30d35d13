package models

import "fmt"

// CheckpointKind distinguishes physical geofences from QR token slots
type CheckpointKind string

const (
	CheckpointGeo   CheckpointKind = "geo"
	CheckpointToken CheckpointKind = "token"
)

// Checkpoint is a physical target (geofence) or secret token slot (QR).
// Loaded once at startup and immutable afterwards.
type Checkpoint struct {
	ID           string         `json:"id" yaml:"id"`
	Kind         CheckpointKind `json:"kind" yaml:"kind"`
	Label        string         `json:"label,omitempty" yaml:"label,omitempty"`
	Lat          float64        `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon          float64        `json:"lon,omitempty" yaml:"lon,omitempty"`
	RadiusMeters float64        `json:"radius_meters,omitempty" yaml:"radius_meters,omitempty"`
	Secret       string         `json:"-" yaml:"secret,omitempty"`
}

// Validate checks the per-kind structural invariants
func (c *Checkpoint) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("checkpoint missing id")
	}
	switch c.Kind {
	case CheckpointGeo:
		if c.RadiusMeters <= 0 {
			return fmt.Errorf("checkpoint %s: radius_meters must be > 0", c.ID)
		}
	case CheckpointToken:
		if c.Secret == "" {
			return fmt.Errorf("checkpoint %s: token checkpoint requires a secret", c.ID)
		}
	default:
		return fmt.Errorf("checkpoint %s: unknown kind %q", c.ID, c.Kind)
	}
	return nil
}

// QuestDefinition binds a quest to exactly one checkpoint
type QuestDefinition struct {
	ID         string `json:"id" yaml:"id"`
	Tier       int    `json:"tier" yaml:"tier"`
	Checkpoint string `json:"checkpoint" yaml:"checkpoint"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
}
