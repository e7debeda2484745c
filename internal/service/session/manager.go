// Package session manages conversation lifecycle: idempotent creation,
// rename, listing, cascading delete, export/import, and the inactivity sweep.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/memochat/internal/config"
	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

type Manager struct {
	sessions core.SessionsRepository
	porter   core.ExporterImporter
	ttl      time.Duration
}

func NewManager(cfg *config.AppConfig, sessions core.SessionsRepository, porter core.ExporterImporter) *Manager {
	return &Manager{
		sessions: sessions,
		porter:   porter,
		ttl:      time.Duration(cfg.SessionTTLHours) * time.Hour,
	}
}

// CreateOrFetch upserts a session. An empty id gets a server-generated one;
// ids are otherwise opaque and client-chosen.
func (m *Manager) CreateOrFetch(ctx context.Context, id, title string) (core.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	return m.sessions.CreateOrFetch(ctx, id, title)
}

func (m *Manager) Get(ctx context.Context, id string) (core.Session, error) {
	return m.sessions.Get(ctx, id)
}

func (m *Manager) Rename(ctx context.Context, id, title string) error {
	return m.sessions.Rename(ctx, id, title)
}

func (m *Manager) List(ctx context.Context) ([]core.Session, error) {
	return m.sessions.List(ctx)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.sessions.Delete(ctx, id)
}

// Touch bumps a session's LastActivity to now.
func (m *Manager) Touch(ctx context.Context, id string) error {
	return m.sessions.Touch(ctx, id, time.Now().UTC())
}

// Sweep removes sessions inactive beyond the TTL along with their dependent
// rows. Failures are logged, never fatal: the sweep runs inline on the chat
// path and must not break request handling.
func (m *Manager) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.ttl)
	if _, err := m.sessions.SweepExpired(ctx, cutoff); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("session TTL sweep failed")
	}
}

func (m *Manager) ExportAll(ctx context.Context) (core.ExportDocument, error) {
	return m.porter.ExportAll(ctx)
}

// Import restores sessions from an export document. A session that fails to
// import is logged and skipped without aborting the rest of the batch.
// Returns the number of sessions imported.
func (m *Manager) Import(ctx context.Context, doc core.ExportDocument) (int, error) {
	logger := log.FromCtx(ctx)

	imported := 0
	for _, s := range doc.Sessions {
		if err := m.porter.ImportSession(ctx, s); err != nil {
			logger.Warn().Err(err).Str("session", s.ID).Msg("skipping session import")
			continue
		}
		imported++
	}

	if imported == 0 && len(doc.Sessions) > 0 {
		return 0, fmt.Errorf("no sessions could be imported")
	}
	return imported, nil
}
