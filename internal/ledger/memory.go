package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/TheoAsp/happybox-go/internal/models"
)

// Memory is the in-process ledger used by tests and local development
type Memory struct {
	mu      sync.Mutex
	players map[string]models.PlayerProgress
	catalog Catalog
}

// NewMemory returns an empty in-memory ledger over the given catalog
func NewMemory(catalog Catalog) *Memory {
	return &Memory{
		players: map[string]models.PlayerProgress{},
		catalog: catalog,
	}
}

func (m *Memory) MarkComplete(_ context.Context, playerID, questID string, email *string) (models.PlayerProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		p = models.NewPlayerProgress(playerID)
	}
	p = p.Clone()
	p.Completed[questID] = true
	if email != nil && p.Email == nil {
		e := *email
		p.Email = &e
	}
	if p.Tier < 2 && tierOneComplete(m.catalog, p.Completed) {
		p.Tier = 2
	}
	p.UpdatedAt = time.Now()
	m.players[playerID] = p
	return p.Clone(), nil
}

func (m *Memory) Get(_ context.Context, playerID string) (models.PlayerProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[playerID]; ok {
		return p.Clone(), nil
	}
	return models.NewPlayerProgress(playerID), nil
}
