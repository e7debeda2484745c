package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/memochat/internal/core"
)

func TestPorterRoundTrip(t *testing.T) {
	src := newTestDB(t)
	ctx := context.Background()

	sessions := NewSessionsRepo(src)
	messages := NewMessagesRepo(src)
	contexts := NewContextsRepo(src)
	facts := NewFactsRepo(src)

	_, err := sessions.CreateOrFetch(ctx, "s1", "Exported Chat")
	require.NoError(t, err)

	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	addMessage(t, messages, "s1", core.RoleUser, "hello", ts)
	addMessage(t, messages, "s1", core.RoleAssistant, "hi there", ts.Add(time.Second))
	require.NoError(t, contexts.Save(ctx, "s1", core.ContextBlob(`[9,8,7]`)))
	require.NoError(t, facts.Upsert(ctx, core.UserFact{SessionID: "s1", Key: "name", Value: "Alex", Timestamp: ts}))

	doc, err := NewPorter(src).ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Sessions, 1)
	assert.False(t, doc.ExportedAt.IsZero())

	exp := doc.Sessions[0]
	assert.Equal(t, "s1", exp.ID)
	assert.Equal(t, "Exported Chat", exp.Title)
	require.Len(t, exp.Messages, 2)
	assert.Equal(t, core.ContextBlob(`[9,8,7]`), exp.Context)
	require.Len(t, exp.Facts, 1)

	// Restore into a fresh database.
	dst := newTestDB(t)
	require.NoError(t, NewPorter(dst).ImportSession(ctx, exp))

	restored := NewSessionsRepo(dst)
	s, err := restored.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Exported Chat", s.Title)

	history, err := NewMessagesRepo(dst).History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.True(t, history[0].Timestamp.Equal(ts), "message timestamps survive the round trip")

	blob, err := NewContextsRepo(dst).Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, core.ContextBlob(`[9,8,7]`), blob)

	restoredFacts, err := NewFactsRepo(dst).List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, restoredFacts, 1)
	assert.Equal(t, "Alex", restoredFacts[0].Value)
}

func TestPorterImportReplacesExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sessions := NewSessionsRepo(db)
	messages := NewMessagesRepo(db)

	_, err := sessions.CreateOrFetch(ctx, "s1", "Live Chat")
	require.NoError(t, err)
	addMessage(t, messages, "s1", core.RoleUser, "stale turn", time.Now().UTC())

	imported := core.ExportedSession{
		ID:           "s1",
		Title:        "Restored Chat",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LastActivity: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Messages: []core.Message{
			{SessionID: "s1", Role: core.RoleUser, Content: "imported turn", Timestamp: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)},
		},
	}
	require.NoError(t, NewPorter(db).ImportSession(ctx, imported))

	s, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Restored Chat", s.Title)

	history, err := messages.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "imported turn", history[0].Content)
}

func TestPorterImportRejectsEmptyID(t *testing.T) {
	db := newTestDB(t)

	err := NewPorter(db).ImportSession(context.Background(), core.ExportedSession{Title: "nameless"})
	assert.Error(t, err)
}
