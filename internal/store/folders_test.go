package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/sse"
)

func TestFolders_CreateAndList(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.CreateFolder(ctx, "  zeta ", domain.CategorySpells)
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, "Alpha", domain.CategorySpells)
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, "Elsewhere", domain.CategoryEnemies)
	require.NoError(t, err)

	folders, err := s.ListFolders(ctx, domain.CategorySpells)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "Alpha", folders[0].Name)
	assert.Equal(t, "zeta", folders[1].Name)
	assert.Contains(t, folders[0].ID, "fld-")
}

func TestFolders_CreateValidation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.CreateFolder(ctx, "   ", domain.CategorySpells)
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = s.CreateFolder(ctx, "Fine", domain.Category("weapons"))
	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestFolders_Rename(t *testing.T) {
	s, emitter := setupEmittingStore(t)
	ctx := context.Background()

	f, err := s.CreateFolder(ctx, "Old", domain.CategorySounds)
	require.NoError(t, err)

	require.NoError(t, s.RenameFolder(ctx, f.ID, "New"))
	got, err := s.GetFolder(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, domain.CategorySounds, got.Category)

	require.ErrorIs(t, s.RenameFolder(ctx, f.ID, ""), domainerrors.ErrValidation)

	// Missing folder: no-op, no event.
	require.NoError(t, s.RenameFolder(ctx, "fld-missing", "Whatever"))
	assert.Equal(t, []sse.EventType{sse.EventFolderCreated, sse.EventFolderRenamed}, emitter.types())
}

func TestFolders_DeleteClearsReferences(t *testing.T) {
	s, emitter := setupEmittingStore(t)
	ctx := context.Background()

	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	f, err := s.CreateFolder(ctx, "Fire", domain.CategorySpells)
	require.NoError(t, err)
	other, err := s.CreateFolder(ctx, "Frost", domain.CategorySpells)
	require.NoError(t, err)

	for _, id := range []string{"spell-1", "spell-2", "spell-3"} {
		sp := newSpell(id, id)
		sp.FolderID = f.ID
		require.NoError(t, s.Spells.Save(ctx, sp))
	}
	kept := newSpell("spell-4", "kept")
	kept.FolderID = other.ID
	require.NoError(t, s.Spells.Save(ctx, kept))

	cleared, err := s.DeleteFolder(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)

	_, err = s.GetFolder(ctx, f.ID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	loose, err := s.Spells.List(ctx, domain.Uncategorized(), false)
	require.NoError(t, err)
	assert.Len(t, loose, 3)

	inOther, err := s.Spells.List(ctx, domain.InFolder(other.ID), false)
	require.NoError(t, err)
	require.Len(t, inOther, 1)
	assert.Equal(t, "spell-4", inOther[0].ID)

	types := emitter.types()
	assert.Equal(t, sse.EventFolderDeleted, types[len(types)-1])

	// Deleting again is a no-op.
	cleared, err = s.DeleteFolder(ctx, f.ID)
	require.NoError(t, err)
	assert.Zero(t, cleared)
}

func TestMeta_LastSync(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.SetLastSync(ctx, at))

	got, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}
