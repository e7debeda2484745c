package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/memochat/internal/core"
)

type FactsRepo struct {
	db *sql.DB
}

func NewFactsRepo(db *sql.DB) *FactsRepo {
	return &FactsRepo{db: db}
}

func (r *FactsRepo) Upsert(ctx context.Context, fact core.UserFact) error {
	ts := fact.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `INSERT INTO user_facts (session_id, key, value, timestamp) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, timestamp = excluded.timestamp`
	if _, err := r.db.ExecContext(ctx, query, fact.SessionID, fact.Key, fact.Value, ts.UTC()); err != nil {
		return fmt.Errorf("failed to upsert fact: %w", err)
	}
	return nil
}

func (r *FactsRepo) List(ctx context.Context, sessionID string) ([]core.UserFact, error) {
	query := `SELECT session_id, key, value, timestamp FROM user_facts WHERE session_id = ? ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []core.UserFact
	for rows.Next() {
		var f core.UserFact
		if err := rows.Scan(&f.SessionID, &f.Key, &f.Value, &f.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
