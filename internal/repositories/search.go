package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
)

// SearchRepository keeps recent queries for one entity kind. It implements tasks.SearchHistory.
type SearchRepository struct {
	db   *sql.DB
	kind string
}

// NewSearchRepository creates a search history for entities of the given kind.
func NewSearchRepository(db *sql.DB, kind string) *SearchRepository {
	return &SearchRepository{db: db, kind: kind}
}

// Record stores query with its result count. Repeating a query refreshes it instead of adding a row.
func (r *SearchRepository) Record(query string, results int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return shared.Invalid("query", "query is required")
	}

	stmt := `
		INSERT INTO searches (id, kind, query, result_count, searched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, query) DO UPDATE SET result_count = excluded.result_count, searched_at = excluded.searched_at
	`
	if _, err := r.db.Exec(stmt, shared.GenerateID(), r.kind, query, results, time.Now()); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// Recent returns up to limit queries, newest first.
func (r *SearchRepository) Recent(limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	stmt := `
		SELECT kind, query, result_count, searched_at
		FROM searches
		WHERE kind = ?
		ORDER BY searched_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(stmt, r.kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	records := []models.SearchRecord{}
	for rows.Next() {
		var rec models.SearchRecord
		if err := rows.Scan(&rec.Kind, &rec.Query, &rec.Results, &rec.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Clear forgets every query of this kind.
func (r *SearchRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM searches WHERE kind = ?`, r.kind); err != nil {
		return fmt.Errorf("failed to clear searches: %w", err)
	}
	return nil
}
