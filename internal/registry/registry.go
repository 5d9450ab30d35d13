package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TheoAsp/happybox-go/internal/models"
)

// SharedSlot is the reserved slot id a configured shared master secret
// resolves to. It binds to every quest and burns a single lock per identity.
const SharedSlot = "SHARED"

var (
	ErrNotFound      = errors.New("checkpoint not found")
	ErrInvalidSecret = errors.New("invalid secret")
	ErrWrongSlot     = errors.New("secret does not satisfy this quest")
	ErrUnknownQuest  = errors.New("unknown quest")
)

// Registry is the static catalog of checkpoints and quests. Read-only after
// Load; safe for concurrent use without locking.
type Registry struct {
	checkpoints map[string]*models.Checkpoint
	quests      map[string]*models.QuestDefinition
	bySecret    map[string]string // presented secret -> checkpoint (slot) id
	byTier      map[int][]string  // tier -> quest ids, catalog order
	shared      string
}

type catalogFile struct {
	Checkpoints []models.Checkpoint      `yaml:"checkpoints"`
	Quests      []models.QuestDefinition `yaml:"quests"`
}

// Load reads and validates a catalog file. Any structural problem (duplicate
// secret, dangling quest reference, bad radius) is a startup-time fatal
// configuration error, so callers should abort on a non-nil error.
func Load(path, sharedSecret string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return New(file.Checkpoints, file.Quests, sharedSecret)
}

// New builds a registry from already-parsed definitions
func New(checkpoints []models.Checkpoint, quests []models.QuestDefinition, sharedSecret string) (*Registry, error) {
	r := &Registry{
		checkpoints: make(map[string]*models.Checkpoint, len(checkpoints)),
		quests:      make(map[string]*models.QuestDefinition, len(quests)),
		bySecret:    map[string]string{},
		byTier:      map[int][]string{},
		shared:      strings.TrimSpace(sharedSecret),
	}

	for i := range checkpoints {
		cp := checkpoints[i]
		cp.Secret = strings.TrimSpace(cp.Secret)
		if err := cp.Validate(); err != nil {
			return nil, err
		}
		if cp.ID == SharedSlot {
			return nil, fmt.Errorf("checkpoint id %q is reserved", SharedSlot)
		}
		if _, dup := r.checkpoints[cp.ID]; dup {
			return nil, fmt.Errorf("duplicate checkpoint id %s", cp.ID)
		}
		if cp.Kind == models.CheckpointToken {
			if _, dup := r.bySecret[cp.Secret]; dup {
				return nil, fmt.Errorf("checkpoint %s: secret already assigned to another checkpoint", cp.ID)
			}
			if r.shared != "" && cp.Secret == r.shared {
				return nil, fmt.Errorf("checkpoint %s: secret collides with the shared master secret", cp.ID)
			}
			r.bySecret[cp.Secret] = cp.ID
		}
		r.checkpoints[cp.ID] = &cp
	}

	for i := range quests {
		q := quests[i]
		if q.ID == "" {
			return nil, fmt.Errorf("quest missing id")
		}
		if q.Tier < 1 || q.Tier > 3 {
			return nil, fmt.Errorf("quest %s: tier must be 1..3, got %d", q.ID, q.Tier)
		}
		if _, dup := r.quests[q.ID]; dup {
			return nil, fmt.Errorf("duplicate quest id %s", q.ID)
		}
		if _, ok := r.checkpoints[q.Checkpoint]; !ok {
			return nil, fmt.Errorf("quest %s references unknown checkpoint %s", q.ID, q.Checkpoint)
		}
		r.quests[q.ID] = &q
		r.byTier[q.Tier] = append(r.byTier[q.Tier], q.ID)
	}

	return r, nil
}

// Resolve looks up a checkpoint by id
func (r *Registry) Resolve(checkpointID string) (*models.Checkpoint, error) {
	cp, ok := r.checkpoints[checkpointID]
	if !ok {
		return nil, ErrNotFound
	}
	return cp, nil
}

// ResolveSecret maps a presented secret to its slot id by exact comparison.
// No partial or prefix matching; unknown secrets are indistinguishable to
// clients from wrong-slot secrets (callers enforce that).
func (r *Registry) ResolveSecret(presented string) (string, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return "", ErrInvalidSecret
	}
	if slot, ok := r.bySecret[presented]; ok {
		return slot, nil
	}
	if r.shared != "" && presented == r.shared {
		return SharedSlot, nil
	}
	return "", ErrInvalidSecret
}

// Bind checks that the slot is the one the quest requires. The shared slot
// binds to every quest.
func (r *Registry) Bind(slotID, questID string) error {
	q, ok := r.quests[questID]
	if !ok {
		return ErrUnknownQuest
	}
	if slotID == SharedSlot {
		return nil
	}
	if q.Checkpoint != slotID {
		return ErrWrongSlot
	}
	return nil
}

// Quest looks up a quest definition by id
func (r *Registry) Quest(questID string) (*models.QuestDefinition, error) {
	q, ok := r.quests[questID]
	if !ok {
		return nil, ErrUnknownQuest
	}
	return q, nil
}

// TierQuests returns the quest ids of a tier in catalog order
func (r *Registry) TierQuests(tier int) []string {
	return r.byTier[tier]
}
