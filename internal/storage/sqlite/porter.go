package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/memochat/internal/core"
)

// Porter serializes sessions with their full payload to a single export
// document and restores them from one.
type Porter struct {
	db       *sql.DB
	sessions *SessionsRepo
	messages *MessagesRepo
	contexts *ContextsRepo
	facts    *FactsRepo
}

func NewPorter(db *sql.DB) *Porter {
	return &Porter{
		db:       db,
		sessions: NewSessionsRepo(db),
		messages: NewMessagesRepo(db),
		contexts: NewContextsRepo(db),
		facts:    NewFactsRepo(db),
	}
}

func (p *Porter) ExportAll(ctx context.Context) (core.ExportDocument, error) {
	doc := core.ExportDocument{ExportedAt: time.Now().UTC()}

	sessions, err := p.sessions.List(ctx)
	if err != nil {
		return doc, fmt.Errorf("failed to list sessions for export: %w", err)
	}

	for _, s := range sessions {
		exp := core.ExportedSession{
			ID:           s.ID,
			Title:        s.Title,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity,
		}

		if exp.Messages, err = p.messages.History(ctx, s.ID, 0); err != nil {
			return doc, fmt.Errorf("failed to export messages for %s: %w", s.ID, err)
		}
		if exp.Context, err = p.contexts.Get(ctx, s.ID); err != nil {
			return doc, fmt.Errorf("failed to export context for %s: %w", s.ID, err)
		}
		if exp.Facts, err = p.facts.List(ctx, s.ID); err != nil {
			return doc, fmt.Errorf("failed to export facts for %s: %w", s.ID, err)
		}

		doc.Sessions = append(doc.Sessions, exp)
	}

	return doc, nil
}

func (p *Porter) ImportSession(ctx context.Context, s core.ExportedSession) error {
	if s.ID == "" {
		return fmt.Errorf("imported session has empty id")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Session row first so messages never reference a missing session.
	query := `INSERT INTO sessions (id, title, created_at, last_activity) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			last_activity = excluded.last_activity`
	if _, err := tx.ExecContext(ctx, query, s.ID, s.Title, s.CreatedAt.UTC(), s.LastActivity.UTC()); err != nil {
		return fmt.Errorf("failed to import session row: %w", err)
	}

	for _, table := range []string{"messages", "contexts", "user_facts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, s.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, m := range s.Messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
			s.ID, m.Role, m.Content, m.Timestamp.UTC())
		if err != nil {
			return fmt.Errorf("failed to import message: %w", err)
		}
	}

	if len(s.Context) > 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO contexts (session_id, context_blob) VALUES (?, ?)`, s.ID, string(s.Context))
		if err != nil {
			return fmt.Errorf("failed to import context: %w", err)
		}
	}

	for _, f := range s.Facts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_facts (session_id, key, value, timestamp) VALUES (?, ?, ?, ?)`,
			s.ID, f.Key, f.Value, f.Timestamp.UTC())
		if err != nil {
			return fmt.Errorf("failed to import fact: %w", err)
		}
	}

	return tx.Commit()
}
