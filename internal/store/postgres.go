package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a shared kv_entries table. Every operation
// is a single statement so the store's own atomicity carries the contract;
// expired rows are treated as absent rather than vacuumed eagerly.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx, `
		SELECT value FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (p *Postgres) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	// The upsert only fires when the existing row has expired, so a live
	// key is never overwritten. A returned row means this call owns the key.
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, CASE WHEN $3::bigint > 0 THEN NOW() + make_interval(secs => $3::double precision) ELSE NULL END)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
		WHERE kv_entries.expires_at IS NOT NULL AND kv_entries.expires_at <= NOW()
	`, key, value, int64(ttl/time.Second))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var value string
	err := p.pool.QueryRow(ctx, `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, '1', NOW() + make_interval(secs => $2::double precision))
		ON CONFLICT (key) DO UPDATE
		SET value = CASE
				WHEN kv_entries.expires_at IS NOT NULL AND kv_entries.expires_at <= NOW() THEN '1'
				ELSE (kv_entries.value::bigint + 1)::text
			END,
			expires_at = CASE
				WHEN kv_entries.expires_at IS NOT NULL AND kv_entries.expires_at <= NOW() THEN NOW() + make_interval(secs => $2::double precision)
				ELSE kv_entries.expires_at
			END
		RETURNING value
	`, key, int64(ttl/time.Second)).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("kv_entries %s holds non-numeric value: %w", key, err)
	}
	return n, nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
