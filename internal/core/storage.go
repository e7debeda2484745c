package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the requested row is absent.
var ErrNotFound = errors.New("not found")

type SessionsRepository interface {
	// CreateOrFetch upserts a session by id. Calling it twice with the same
	// id neither duplicates the row nor resets CreatedAt.
	CreateOrFetch(ctx context.Context, id, title string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Rename(ctx context.Context, id, title string) error
	// List returns all sessions with message counts, most recent first.
	List(ctx context.Context) ([]Session, error)
	// Delete removes the session and its messages, context, facts and
	// reference contexts in one transaction.
	Delete(ctx context.Context, id string) error
	// Touch bumps LastActivity.
	Touch(ctx context.Context, id string, at time.Time) error
	// SweepExpired deletes sessions whose LastActivity is older than cutoff,
	// with dependent rows, atomically. Returns the number of sessions removed.
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)
}

type MessagesRepository interface {
	// Add appends a message. A zero Timestamp is replaced with the current
	// time. Returns the stored row id.
	Add(ctx context.Context, msg Message) (int64, error)
	// History returns up to limit most recent messages in chronological
	// order. limit <= 0 means no limit.
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// DeleteMatchingAssistant permanently removes assistant messages whose
	// lower-cased content contains any of the given signatures. Used only by
	// the one-time startup contamination sweep.
	DeleteMatchingAssistant(ctx context.Context, signatures []string) (int64, error)
}

type ContextsRepository interface {
	// Save upserts the rolling context blob for a session.
	Save(ctx context.Context, sessionID string, blob ContextBlob) error
	// Get returns the stored blob, or nil when none exists.
	Get(ctx context.Context, sessionID string) (ContextBlob, error)
}

type FactsRepository interface {
	Upsert(ctx context.Context, fact UserFact) error
	List(ctx context.Context, sessionID string) ([]UserFact, error)
}

type ReferencesRepository interface {
	Add(ctx context.Context, ref ReferenceContext) (int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]ReferenceContext, error)
	ListActive(ctx context.Context, sessionID string) ([]ReferenceContext, error)
	Toggle(ctx context.Context, sessionID string, id int64) error
	Update(ctx context.Context, sessionID string, id int64, title, content string) error
	Delete(ctx context.Context, sessionID string, id int64) error
}

// ExportedSession is one session with its full payload as written to an
// export document.
type ExportedSession struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastActivity time.Time   `json:"lastActivity"`
	Messages     []Message   `json:"messages"`
	Context      ContextBlob `json:"context,omitempty"`
	Facts        []UserFact  `json:"facts,omitempty"`
}

// ExportDocument is the wire format of a full session dump.
type ExportDocument struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Sessions   []ExportedSession `json:"sessions"`
}

type ExporterImporter interface {
	ExportAll(ctx context.Context) (ExportDocument, error)
	// ImportSession replaces the session's messages, context and facts in one
	// transaction, recreating the session row first so dependent rows always
	// reference a live session.
	ImportSession(ctx context.Context, s ExportedSession) error
}
