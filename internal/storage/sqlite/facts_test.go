package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/memochat/internal/core"
)

func TestFactsUpsertLatestWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, core.UserFact{SessionID: "s1", Key: "name", Value: "Alex"}))
	require.NoError(t, repo.Upsert(ctx, core.UserFact{SessionID: "s1", Key: "name", Value: "Sam"}))

	facts, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "name", facts[0].Key)
	assert.Equal(t, "Sam", facts[0].Value)
}

func TestFactsKeyedPerSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, core.UserFact{SessionID: "s1", Key: "name", Value: "Alex"}))
	require.NoError(t, repo.Upsert(ctx, core.UserFact{SessionID: "s2", Key: "name", Value: "Sam"}))

	facts, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "Alex", facts[0].Value)
}

func TestFactsListOrderedByKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, core.UserFact{SessionID: "s1", Key: "occupation", Value: "engineer"}))
	require.NoError(t, repo.Upsert(ctx, core.UserFact{SessionID: "s1", Key: "name", Value: "Alex"}))

	facts, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "name", facts[0].Key)
	assert.Equal(t, "occupation", facts[1].Key)
}
