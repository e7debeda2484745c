package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

func (r *MessagesRepo) Add(ctx context.Context, msg core.Message) (int64, error) {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, msg.SessionID, msg.Role, msg.Content, ts.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return res.LastInsertId()
}

func (r *MessagesRepo) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	var rows *sql.Rows
	var err error

	if limit > 0 {
		// Fetch the LAST 'limit' messages by ordering DESC, reversed below.
		query := `SELECT id, session_id, role, content, timestamp FROM messages
			WHERE session_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`
		rows, err = r.db.QueryContext(ctx, query, sessionID, limit)
	} else {
		query := `SELECT id, session_id, role, content, timestamp FROM messages
			WHERE session_id = ? ORDER BY timestamp ASC, id ASC`
		rows, err = r.db.QueryContext(ctx, query, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if limit > 0 {
		// Back to chronological order (oldest -> newest).
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

func (r *MessagesRepo) DeleteMatchingAssistant(ctx context.Context, signatures []string) (int64, error) {
	if len(signatures) == 0 {
		return 0, nil
	}

	conds := make([]string, 0, len(signatures))
	args := make([]any, 0, len(signatures))
	for _, sig := range signatures {
		conds = append(conds, `instr(lower(content), ?) > 0`)
		args = append(args, strings.ToLower(sig))
	}

	query := `DELETE FROM messages WHERE role = 'assistant' AND (` + strings.Join(conds, " OR ") + `)`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contaminated messages: %w", err)
	}
	return res.RowsAffected()
}
