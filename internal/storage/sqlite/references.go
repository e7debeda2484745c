package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/memochat/internal/core"
)

// ReferencesRepo stores user-curated reference text blocks. The table is not
// foreign-keyed to sessions, so rows can outlive their session; every query
// here filters by session_id to keep orphans harmless.
type ReferencesRepo struct {
	db *sql.DB
}

func NewReferencesRepo(db *sql.DB) *ReferencesRepo {
	return &ReferencesRepo{db: db}
}

func (r *ReferencesRepo) Add(ctx context.Context, ref core.ReferenceContext) (int64, error) {
	ts := ref.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `INSERT INTO reference_contexts (session_id, title, content, timestamp, is_active)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, ref.SessionID, ref.Title, ref.Content, ts.UTC(), ref.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reference: %w", err)
	}
	return res.LastInsertId()
}

func (r *ReferencesRepo) ListBySession(ctx context.Context, sessionID string) ([]core.ReferenceContext, error) {
	return r.list(ctx, sessionID, false)
}

func (r *ReferencesRepo) ListActive(ctx context.Context, sessionID string) ([]core.ReferenceContext, error) {
	return r.list(ctx, sessionID, true)
}

func (r *ReferencesRepo) list(ctx context.Context, sessionID string, activeOnly bool) ([]core.ReferenceContext, error) {
	query := `SELECT id, session_id, title, content, timestamp, is_active
		FROM reference_contexts WHERE session_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	var refs []core.ReferenceContext
	for rows.Next() {
		var ref core.ReferenceContext
		if err := rows.Scan(&ref.ID, &ref.SessionID, &ref.Title, &ref.Content, &ref.Timestamp, &ref.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *ReferencesRepo) Toggle(ctx context.Context, sessionID string, id int64) error {
	query := `UPDATE reference_contexts SET is_active = 1 - is_active WHERE session_id = ? AND id = ?`
	return r.exec(ctx, query, sessionID, id)
}

func (r *ReferencesRepo) Update(ctx context.Context, sessionID string, id int64, title, content string) error {
	query := `UPDATE reference_contexts SET title = ?, content = ? WHERE session_id = ? AND id = ?`
	return r.exec(ctx, query, title, content, sessionID, id)
}

func (r *ReferencesRepo) Delete(ctx context.Context, sessionID string, id int64) error {
	query := `DELETE FROM reference_contexts WHERE session_id = ? AND id = ?`
	return r.exec(ctx, query, sessionID, id)
}

func (r *ReferencesRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reference: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
