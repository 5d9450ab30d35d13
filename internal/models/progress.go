package models

import "time"

// PlayerProgress is the per-player quest completion state.
// Created lazily on first claim; completion is one-way, quests are never
// un-completed and the tier never moves back down.
type PlayerProgress struct {
	PlayerID  string          `json:"player_id"`
	Completed map[string]bool `json:"completed"`
	Tier      int             `json:"tier"`
	Email     *string         `json:"email,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewPlayerProgress returns the empty tier-1 state for a previously unseen player
func NewPlayerProgress(playerID string) PlayerProgress {
	return PlayerProgress{
		PlayerID:  playerID,
		Completed: map[string]bool{},
		Tier:      1,
	}
}

// Clone returns a deep copy so callers can't mutate ledger-owned state
func (p PlayerProgress) Clone() PlayerProgress {
	out := p
	out.Completed = make(map[string]bool, len(p.Completed))
	for id, done := range p.Completed {
		out.Completed[id] = done
	}
	return out
}

// CompletedIDs returns the completed quest ids (unordered)
func (p PlayerProgress) CompletedIDs() []string {
	ids := make([]string, 0, len(p.Completed))
	for id, done := range p.Completed {
		if done {
			ids = append(ids, id)
		}
	}
	return ids
}
