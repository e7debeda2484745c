// Package storage wires the sqlite repositories to the in-memory fallback:
// when a persistent operation fails the same operation is served from the
// non-persistent store so a chat request still gets an answer.
package storage

import (
	"context"
	"time"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

// SessionFailover decorates a SessionsRepository with an in-memory fallback.
type SessionFailover struct {
	primary  core.SessionsRepository
	fallback core.SessionsRepository
}

func NewSessionFailover(primary, fallback core.SessionsRepository) *SessionFailover {
	return &SessionFailover{primary: primary, fallback: fallback}
}

func (f *SessionFailover) CreateOrFetch(ctx context.Context, id, title string) (core.Session, error) {
	s, err := f.primary.CreateOrFetch(ctx, id, title)
	if err != nil {
		logFallback(ctx, "create-or-fetch session", err)
		return f.fallback.CreateOrFetch(ctx, id, title)
	}
	return s, nil
}

func (f *SessionFailover) Get(ctx context.Context, id string) (core.Session, error) {
	return f.primary.Get(ctx, id)
}

func (f *SessionFailover) Rename(ctx context.Context, id, title string) error {
	return f.primary.Rename(ctx, id, title)
}

func (f *SessionFailover) List(ctx context.Context) ([]core.Session, error) {
	return f.primary.List(ctx)
}

func (f *SessionFailover) Delete(ctx context.Context, id string) error {
	return f.primary.Delete(ctx, id)
}

func (f *SessionFailover) Touch(ctx context.Context, id string, at time.Time) error {
	if err := f.primary.Touch(ctx, id, at); err != nil {
		logFallback(ctx, "touch session", err)
		return f.fallback.Touch(ctx, id, at)
	}
	return nil
}

func (f *SessionFailover) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	return f.primary.SweepExpired(ctx, cutoff)
}

// MessageFailover decorates a MessagesRepository with an in-memory fallback.
type MessageFailover struct {
	primary  core.MessagesRepository
	fallback core.MessagesRepository
}

func NewMessageFailover(primary, fallback core.MessagesRepository) *MessageFailover {
	return &MessageFailover{primary: primary, fallback: fallback}
}

func (f *MessageFailover) Add(ctx context.Context, msg core.Message) (int64, error) {
	id, err := f.primary.Add(ctx, msg)
	if err != nil {
		logFallback(ctx, "add message", err)
		return f.fallback.Add(ctx, msg)
	}
	return id, nil
}

func (f *MessageFailover) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	msgs, err := f.primary.History(ctx, sessionID, limit)
	if err != nil {
		logFallback(ctx, "load history", err)
		return f.fallback.History(ctx, sessionID, limit)
	}
	return msgs, nil
}

func (f *MessageFailover) DeleteMatchingAssistant(ctx context.Context, signatures []string) (int64, error) {
	return f.primary.DeleteMatchingAssistant(ctx, signatures)
}

func logFallback(ctx context.Context, op string, err error) {
	log.FromCtx(ctx).Warn().Err(err).Str("op", op).Msg("storage failed, using in-memory fallback")
}
