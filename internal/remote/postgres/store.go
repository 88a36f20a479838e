// Package postgres implements the remote side of sync: the shared
// server-side store every device reconciles against. Rows are keyed by
// (user, id) and carried as whole-entity JSON documents; the upsert merges
// by update timestamp so a stale push never regresses a newer row.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwestre/cadence/internal/sync"
)

// Collection is the remote store for one syncable entity type. factory
// allocates an empty entity for decoding fetched rows.
type Collection[T sync.Entity] struct {
	pool    *pgxpool.Pool
	table   string
	factory func() T
}

// NewCollection creates a remote collection backed by the given table.
func NewCollection[T sync.Entity](pool *pgxpool.Pool, table string, factory func() T) *Collection[T] {
	return &Collection[T]{pool: pool, table: table, factory: factory}
}

// EnsureSchema creates the collection table if missing.
func (c *Collection[T]) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, id)
		)`, c.table)
	if _, err := c.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.table, err)
	}
	return nil
}

// FetchAll returns every row in the user's collection, tombstones included.
func (c *Collection[T]) FetchAll(ctx context.Context, uid string) ([]T, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE user_id = $1`, c.table)
	rows, err := c.pool.Query(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", c.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c.table, err)
		}
		e := c.factory()
		if err := json.Unmarshal(payload, e); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", c.table, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Push upserts one entity with merge semantics: the stored row only changes
// when the pushed copy is strictly newer, so retried and double pushes are
// idempotent and an outdated device cannot clobber fresher data.
func (c *Collection[T]) Push(ctx context.Context, uid string, e T) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s entity: %w", c.table, err)
	}
	meta := e.SyncMeta()
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, id, payload, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE excluded.updated_at > %s.updated_at`, c.table, c.table)
	_, err = c.pool.Exec(ctx, query, uid, e.EntityID(), payload, meta.UpdatedAt, meta.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to push %s entity: %w", c.table, err)
	}
	return nil
}

// Delete removes a row outright. Sync never calls this; it exists for the
// rare cleanup of rows that should not have reached the remote store.
func (c *Collection[T]) Delete(ctx context.Context, uid, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND id = $2`, c.table)
	if _, err := c.pool.Exec(ctx, query, uid, id); err != nil {
		return fmt.Errorf("failed to delete %s entity: %w", c.table, err)
	}
	return nil
}
