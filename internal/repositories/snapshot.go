package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
)

// SnapshotRepository caches one entity kind's collection so it can be listed without the backend.
//
// Rows are keyed by (kind, remote id) and hold the entity as JSON. It implements tasks.Cacher.
type SnapshotRepository[T models.Entity[T]] struct {
	db   *sql.DB
	kind string
}

// NewSnapshotRepository creates a repository for entities of the given kind, e.g. [KindRecipes].
func NewSnapshotRepository[T models.Entity[T]](db *sql.DB, kind string) *SnapshotRepository[T] {
	return &SnapshotRepository[T]{db: db, kind: kind}
}

// NewRecipeSnapshots creates the recipe cache.
func NewRecipeSnapshots(db *sql.DB) *SnapshotRepository[models.Recipe] {
	return NewSnapshotRepository[models.Recipe](db, KindRecipes)
}

// NewTrainSnapshots creates the train cache.
func NewTrainSnapshots(db *sql.DB) *SnapshotRepository[models.Train] {
	return NewSnapshotRepository[models.Train](db, KindTrains)
}

// Replace makes items the cached collection of ownerID, in the given order.
//
// Entities previously cached for ownerID that are not in items are soft deleted.
func (r *SnapshotRepository[T]) Replace(ownerID int, items []T) error {
	now := time.Now()
	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE kind = ? AND user_id = ? AND deleted_at IS NULL
	`
	if _, err := r.db.Exec(query, now, r.kind, ownerID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	for _, item := range items {
		if err := r.upsert(item, true); err != nil {
			return err
		}
	}
	return nil
}

// Upsert caches item, keeping its position if it is already cached.
func (r *SnapshotRepository[T]) Upsert(item T) error {
	return r.upsert(item, false)
}

func (r *SnapshotRepository[T]) upsert(item T, resequence bool) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s %d: %w", r.kind, item.EntityID(), err)
	}

	var (
		id       string
		sequence int
	)
	err = r.db.QueryRow(`SELECT id, sequence FROM snapshots WHERE kind = ? AND remote_id = ?`, r.kind, item.EntityID()).
		Scan(&id, &sequence)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.insert(item, payload)
	case err != nil:
		return fmt.Errorf("failed to look up snapshot: %w", err)
	}

	if resequence {
		if sequence, err = NextSequence(r.db, "snapshots"); err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
	}

	query := `
		UPDATE snapshots
		SET sequence = ?, user_id = ?, payload = ?, updated_at = ?, deleted_at = NULL
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, sequence, item.OwnerID(), string(payload), time.Now(), id); err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository[T]) insert(item T, payload []byte) error {
	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO snapshots (id, sequence, kind, remote_id, user_id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, shared.GenerateID(), sequence, r.kind, item.EntityID(), item.OwnerID(), string(payload), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// Remove soft deletes the cached entity with the given remote id.
func (r *SnapshotRepository[T]) Remove(id int) error {
	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE kind = ? AND remote_id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, time.Now(), r.kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return affected(result, fmt.Sprintf("%s %d", r.kind, id))
}

// Get returns the cached entity with the given remote id.
func (r *SnapshotRepository[T]) Get(id int) (T, error) {
	var (
		zero    T
		payload string
	)
	query := `
		SELECT payload FROM snapshots
		WHERE kind = ? AND remote_id = ? AND deleted_at IS NULL
	`
	err := r.db.QueryRow(query, r.kind, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%w: %s %d", shared.ErrEntityNotFound, r.kind, id)
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return r.decode(payload)
}

// List returns ownerID's cached entities in the order they were cached. A non-positive ownerID lists every owner.
func (r *SnapshotRepository[T]) List(ownerID int) ([]T, error) {
	query := `
		SELECT payload FROM snapshots
		WHERE kind = ? AND deleted_at IS NULL
	`
	args := []any{r.kind}
	if ownerID > 0 {
		query += " AND user_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		item, err := r.decode(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// CachedAt reports when ownerID's collection was last written, or false if nothing is cached.
func (r *SnapshotRepository[T]) CachedAt(ownerID int) (time.Time, bool, error) {
	var updated time.Time
	query := `
		SELECT updated_at FROM snapshots
		WHERE kind = ? AND user_id = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(query, r.kind, ownerID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cache age: %w", err)
	}
	return updated, true, nil
}

func (r *SnapshotRepository[T]) decode(payload string) (T, error) {
	var item T
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return item, fmt.Errorf("failed to decode %s snapshot: %w", r.kind, err)
	}
	return item, nil
}
