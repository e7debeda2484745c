// Package memory is a process-scoped, non-persistent session store used as a
// fallback when the sqlite layer fails. It is created once at startup, passed
// by reference into request handling, never persisted, and cleared on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sandevgo/memochat/internal/core"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
	messages map[string][]core.Message
	nextID   int64
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]core.Session),
		messages: make(map[string][]core.Message),
	}
}

func (s *Store) CreateOrFetch(ctx context.Context, id, title string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	if title == "" {
		title = "New Chat"
	}
	now := time.Now().UTC()
	sess := core.Session{ID: id, Title: title, CreatedAt: now, LastActivity: now}
	s.sessions[id] = sess
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	return sess, nil
}

func (s *Store) Rename(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	sess.Title = title
	s.sessions[id] = sess
	return nil
}

func (s *Store) List(ctx context.Context) ([]core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]core.Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sess.MessageCount = len(s.messages[id])
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) Touch(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = at.UTC()
		s.sessions[id] = sess
	}
	return nil
}

func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swept int
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.messages, id)
			swept++
		}
	}
	return swept, nil
}

func (s *Store) Add(ctx context.Context, msg core.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = s.nextID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	return msg.ID, nil
}

func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) DeleteMatchingAssistant(ctx context.Context, signatures []string) (int64, error) {
	// The fallback store starts empty on every boot, nothing to scrub.
	return 0, nil
}
