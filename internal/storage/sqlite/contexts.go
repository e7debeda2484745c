package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/memochat/internal/core"
)

type ContextsRepo struct {
	db *sql.DB
}

func NewContextsRepo(db *sql.DB) *ContextsRepo {
	return &ContextsRepo{db: db}
}

func (r *ContextsRepo) Save(ctx context.Context, sessionID string, blob core.ContextBlob) error {
	query := `INSERT INTO contexts (session_id, context_blob) VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET context_blob = excluded.context_blob`
	if _, err := r.db.ExecContext(ctx, query, sessionID, string(blob)); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	return nil
}

func (r *ContextsRepo) Get(ctx context.Context, sessionID string) (core.ContextBlob, error) {
	var blob string
	err := r.db.QueryRowContext(ctx,
		`SELECT context_blob FROM contexts WHERE session_id = ?`, sessionID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query context: %w", err)
	}
	return core.ContextBlob(blob), nil
}
