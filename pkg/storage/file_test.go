package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
)

func TestFileRepositoryProcessedState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	repo, err := NewFileRepository(path, nil)
	require.NoError(t, err)

	ok, err := repo.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.MarkProcessed(ctx, "msg-1"))

	ok, err = repo.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileRepositoryEventMaps(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	repo, err := NewFileRepository(path, nil)
	require.NoError(t, err)

	_, err = repo.GetEventMap(ctx, "msg-1")
	assert.True(t, jcerrors.IsNotFound(err))

	m := EventMap{MessageID: "msg-1", EventID: "evt-1", Title: "Synaptic Scaling"}
	require.NoError(t, repo.SaveEventMap(ctx, m))

	got, err := repo.GetEventMap(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "evt-1", got.EventID)
	assert.False(t, got.UpdatedAt.IsZero())

	// Upsert replaces the mapping.
	m.EventID = "evt-2"
	require.NoError(t, repo.SaveEventMap(ctx, m))
	got, err = repo.GetEventMap(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "evt-2", got.EventID)

	all, err := repo.ListEventMaps(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteEventMap(ctx, "msg-1"))
	_, err = repo.GetEventMap(ctx, "msg-1")
	assert.True(t, jcerrors.IsNotFound(err))

	// Deleting again is not an error.
	require.NoError(t, repo.DeleteEventMap(ctx, "msg-1"))
}

func TestFileRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	repo, err := NewFileRepository(path, nil)
	require.NoError(t, err)
	require.NoError(t, repo.MarkProcessed(ctx, "msg-1"))
	require.NoError(t, repo.SaveEventMap(ctx, EventMap{MessageID: "msg-1", EventID: "evt-1"}))
	require.NoError(t, repo.Close())

	reopened, err := NewFileRepository(path, nil)
	require.NoError(t, err)

	ok, err := reopened.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := reopened.GetEventMap(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "evt-1", got.EventID)
}

func TestFileRepositoryRejectsCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileRepository(path, nil)
	assert.Error(t, err)
}
