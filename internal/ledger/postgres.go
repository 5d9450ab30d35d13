package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheoAsp/happybox-go/internal/models"
)

// Postgres is the durable ledger implementation. MarkComplete runs in a
// transaction so the completion row, the optional email and the tier unlock
// land together or not at all.
type Postgres struct {
	pool    *pgxpool.Pool
	catalog Catalog
}

// NewPostgres wraps an existing pool
func NewPostgres(pool *pgxpool.Pool, catalog Catalog) *Postgres {
	return &Postgres{pool: pool, catalog: catalog}
}

func (p *Postgres) MarkComplete(ctx context.Context, playerID, questID string, email *string) (models.PlayerProgress, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return models.PlayerProgress{}, fmt.Errorf("failed to start progress transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO players (id, tier, created_at, updated_at)
		VALUES ($1, 1, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`, playerID)
	if err != nil {
		return models.PlayerProgress{}, fmt.Errorf("failed to ensure player %s: %w", playerID, err)
	}

	// Lock the player row so concurrent claims for the same player evaluate
	// the tier unlock one at a time. Without it, two transactions completing
	// the last two tier-1 quests each see only their own progress row and
	// both skip the unlock.
	var lockedTier int
	err = tx.QueryRow(ctx, `
		SELECT tier FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&lockedTier)
	if err != nil {
		return models.PlayerProgress{}, fmt.Errorf("failed to lock player %s: %w", playerID, err)
	}

	if email != nil {
		// First writer wins; the stored email is never replaced
		_, err = tx.Exec(ctx, `
			UPDATE players SET email = $2, updated_at = NOW()
			WHERE id = $1 AND email IS NULL
		`, playerID, *email)
		if err != nil {
			return models.PlayerProgress{}, fmt.Errorf("failed to record email for %s: %w", playerID, err)
		}
	}

	// Re-marking a completed quest is a no-op
	_, err = tx.Exec(ctx, `
		INSERT INTO quest_progress (player_id, quest_id, completed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (player_id, quest_id) DO NOTHING
	`, playerID, questID)
	if err != nil {
		return models.PlayerProgress{}, fmt.Errorf("failed to mark quest %s: %w", questID, err)
	}

	progress, err := loadProgress(ctx, tx, playerID)
	if err != nil {
		return models.PlayerProgress{}, err
	}

	if progress.Tier < 2 && tierOneComplete(p.catalog, progress.Completed) {
		// One-way transition; the guard clause keeps it from ever re-running
		_, err = tx.Exec(ctx, `
			UPDATE players SET tier = 2, updated_at = NOW()
			WHERE id = $1 AND tier < 2
		`, playerID)
		if err != nil {
			return models.PlayerProgress{}, fmt.Errorf("failed to unlock tier for %s: %w", playerID, err)
		}
		progress.Tier = 2
	}

	if err := tx.Commit(ctx); err != nil {
		return models.PlayerProgress{}, fmt.Errorf("failed to commit progress: %w", err)
	}
	return progress, nil
}

func (p *Postgres) Get(ctx context.Context, playerID string) (models.PlayerProgress, error) {
	progress, err := loadProgress(ctx, p.pool, playerID)
	if err != nil {
		return models.PlayerProgress{}, err
	}
	return progress, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadProgress(ctx context.Context, q querier, playerID string) (models.PlayerProgress, error) {
	progress := models.NewPlayerProgress(playerID)

	var email *string
	var tier int
	var updatedAt time.Time
	err := q.QueryRow(ctx, `
		SELECT tier, email, updated_at FROM players WHERE id = $1
	`, playerID).Scan(&tier, &email, &updatedAt)
	switch {
	case err == pgx.ErrNoRows:
		// Unseen player reads as empty tier-1 state
		return progress, nil
	case err != nil:
		return progress, fmt.Errorf("failed to load player %s: %w", playerID, err)
	}
	progress.Tier = tier
	progress.Email = email
	progress.UpdatedAt = updatedAt

	rows, err := q.Query(ctx, `
		SELECT quest_id FROM quest_progress WHERE player_id = $1
	`, playerID)
	if err != nil {
		return progress, fmt.Errorf("failed to load progress for %s: %w", playerID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var questID string
		if err := rows.Scan(&questID); err != nil {
			return progress, fmt.Errorf("failed to scan progress row: %w", err)
		}
		progress.Completed[questID] = true
	}
	return progress, rows.Err()
}
