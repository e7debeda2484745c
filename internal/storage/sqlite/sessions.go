package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) CreateOrFetch(ctx context.Context, id, title string) (core.Session, error) {
	if title == "" {
		title = "New Chat"
	}

	now := time.Now().UTC()
	query := `INSERT INTO sessions (id, title, created_at, last_activity) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, id, title, now, now); err != nil {
		return core.Session{}, fmt.Errorf("failed to upsert session: %w", err)
	}

	return r.Get(ctx, id)
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (core.Session, error) {
	var s core.Session
	query := `SELECT id, title, created_at, last_activity FROM sessions WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Title, &s.CreatedAt, &s.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to query session: %w", err)
	}
	return s, nil
}

func (r *SessionsRepo) Rename(ctx context.Context, id, title string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SessionsRepo) List(ctx context.Context) ([]core.Session, error) {
	query := `SELECT s.id, s.title, s.created_at, s.last_activity, COUNT(m.id)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.last_activity DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []core.Session
	for rows.Next() {
		var s core.Session
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.LastActivity, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionsRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_activity = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSessionRows(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return tx.Commit()
}

func (r *SessionsRepo) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM sessions WHERE last_activity < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to query expired sessions: %w", err)
	}

	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(expired) == 0 {
		return 0, nil
	}

	for _, id := range expired {
		if err := deleteSessionRows(ctx, tx, id); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to delete expired session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.FromCtx(ctx).Info().Int("count", len(expired)).Msg("swept expired sessions")
	return len(expired), nil
}

// deleteSessionRows removes every dependent row of a session inside tx.
// Reference contexts are included even though they carry no foreign key.
func deleteSessionRows(ctx context.Context, tx *sql.Tx, id string) error {
	for _, table := range []string{"messages", "contexts", "user_facts", "reference_contexts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return nil
}
