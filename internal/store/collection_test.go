package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/sse"
	"github.com/cryptforge/forge-studio/internal/store"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := event.(sse.Event); ok {
		r.events = append(r.events, e)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type recordingIndexer struct {
	mu        sync.Mutex
	indexed   []string
	removed   []string
	reindexed map[domain.Category]int
}

func (r *recordingIndexer) IndexAsset(_ context.Context, a domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, a.Meta().ID)
	return nil
}

func (r *recordingIndexer) RemoveAsset(_ context.Context, _ domain.Category, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

func (r *recordingIndexer) ReindexCategory(_ context.Context, c domain.Category, assets []domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reindexed == nil {
		r.reindexed = make(map[domain.Category]int)
	}
	r.reindexed[c] = len(assets)
	return nil
}

func setupEmittingStore(t *testing.T) (*store.Store, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	s, err := store.New(t.TempDir(), nil, emitter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, emitter
}

func newSpell(id, name string) *domain.Spell {
	s := &domain.Spell{AssetMeta: domain.AssetMeta{ID: id, Name: name}}
	s.ApplyDefaults()
	return s
}

func seedBuiltInSpell(t *testing.T, s *store.Store, id string) {
	t.Helper()
	coll, err := s.Collection(domain.CategorySpells)
	require.NoError(t, err)
	_, err = coll.SeedBuiltIns(context.Background(), []domain.Asset{newSpell(id, "Built-in "+id)})
	require.NoError(t, err)
}

func TestCollection_SaveGetRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	spell := newSpell("spell-1", "Fireball")
	spell.School = "fire"
	spell.Damage = 42
	require.NoError(t, s.Spells.Save(ctx, spell))

	got, err := s.Spells.Get(ctx, "spell-1")
	require.NoError(t, err)
	assert.Equal(t, "Fireball", got.Name)
	assert.Equal(t, "fire", got.School)
	assert.Equal(t, 42, got.Damage)
	assert.Equal(t, fixed, got.CreatedAt)
	assert.Equal(t, fixed, got.UpdatedAt)
	assert.False(t, got.BuiltIn)
}

func TestCollection_SavePreservesCreatedAt(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	s.SetClock(func() time.Time { return first })
	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-1", "Fireball")))

	s.SetClock(func() time.Time { return second })
	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-1", "Greater Fireball")))

	got, err := s.Spells.Get(ctx, "spell-1")
	require.NoError(t, err)
	assert.Equal(t, "Greater Fireball", got.Name)
	assert.Equal(t, first, got.CreatedAt)
	assert.Equal(t, second, got.UpdatedAt)
}

func TestCollection_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.Spells.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Contains(t, err.Error(), "spells")
}

func TestCollection_SaveValidation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Spells.Save(ctx, newSpell("spell-1", ""))
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	err = s.Spells.Save(ctx, newSpell("", "Nameless"))
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	count, err := s.Spells.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollection_SaveRejectsUnknownOrForeignFolder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	spell := newSpell("spell-1", "Fireball")
	spell.FolderID = "fld-missing"
	require.ErrorIs(t, s.Spells.Save(ctx, spell), domainerrors.ErrValidation)

	soundFolder, err := s.CreateFolder(ctx, "Ambience", domain.CategorySounds)
	require.NoError(t, err)

	spell.FolderID = soundFolder.ID
	err = s.Spells.Save(ctx, spell)
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "sounds")
}

func TestCollection_BuiltInsAreReadOnly(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedBuiltInSpell(t, s, "spell-core")

	err := s.Spells.Delete(ctx, "spell-core")
	require.ErrorIs(t, err, domainerrors.ErrProtected)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 403, domainErr.HTTPStatus())

	// Overwriting through a custom record with the same id is refused too.
	err = s.Spells.Save(ctx, newSpell("spell-core", "Hijack"))
	require.ErrorIs(t, err, domainerrors.ErrProtected)

	// And a record claiming to be built-in cannot be saved.
	fake := newSpell("spell-fake", "Fake")
	fake.BuiltIn = true
	require.ErrorIs(t, s.Spells.Save(ctx, fake), domainerrors.ErrProtected)

	got, err := s.Spells.Get(ctx, "spell-core")
	require.NoError(t, err)
	assert.True(t, got.BuiltIn)
	assert.Equal(t, "Built-in spell-core", got.Name)
}

func TestCollection_DeleteMissingIsNoop(t *testing.T) {
	s, emitter := setupEmittingStore(t)

	require.NoError(t, s.Spells.Delete(context.Background(), "ghost"))
	assert.Empty(t, emitter.types())
}

func TestCollection_ListFolderFilter(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, "Fire", domain.CategorySpells)
	require.NoError(t, err)

	filed := newSpell("spell-a", "Filed")
	filed.FolderID = folder.ID
	require.NoError(t, s.Spells.Save(ctx, filed))
	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-b", "Loose")))
	seedBuiltInSpell(t, s, "spell-core")

	ids := func(recs []*domain.Spell) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.ID
		}
		return out
	}

	all, err := s.Spells.List(ctx, domain.AllFolders(), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"spell-a", "spell-b"}, ids(all))

	withBuiltIn, err := s.Spells.List(ctx, domain.AllFolders(), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"spell-a", "spell-b", "spell-core"}, ids(withBuiltIn))

	loose, err := s.Spells.List(ctx, domain.Uncategorized(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"spell-b"}, ids(loose))

	inFolder, err := s.Spells.List(ctx, domain.InFolder(folder.ID), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"spell-a"}, ids(inFolder))
}

func TestCollection_EmitsAndIndexes(t *testing.T) {
	s, emitter := setupEmittingStore(t)
	ctx := context.Background()

	idx := &recordingIndexer{}
	s.SetIndexer(idx)

	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-1", "Fireball")))
	require.NoError(t, s.Spells.Delete(ctx, "spell-1"))

	assert.Equal(t, []sse.EventType{sse.EventAssetSaved, sse.EventAssetDeleted}, emitter.types())
	assert.Equal(t, []string{"spell-1"}, idx.indexed)
	assert.Equal(t, []string{"spell-1"}, idx.removed)
}

func TestCollection_SanitizesHTML(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	s.SetSanitizer(func(string) string { return "<p>clean</p>" })

	h := &domain.HelpSection{AssetMeta: domain.AssetMeta{ID: "help-1", Name: "Intro"}}
	h.ApplyDefaults()
	h.Content = `<p onclick="x()">dirty</p>`
	require.NoError(t, s.Help.Save(ctx, h))

	got, err := s.Help.Get(ctx, "help-1")
	require.NoError(t, err)
	assert.Equal(t, "<p>clean</p>", got.Content)
}

func TestCollection_Replace(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedBuiltInSpell(t, s, "spell-core")
	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-old", "Old")))
	oldFolder, err := s.CreateFolder(ctx, "Old folder", domain.CategorySpells)
	require.NoError(t, err)

	coll, err := s.Collection(domain.CategorySpells)
	require.NoError(t, err)

	kept := newSpell("spell-new", "New")
	kept.FolderID = "fld-remote"
	dangling := newSpell("spell-dangling", "Dangling")
	dangling.FolderID = "fld-gone"
	flagged := newSpell("spell-flagged", "Flagged")
	flagged.BuiltIn = true
	collide := newSpell("spell-core", "Collides")

	res, err := coll.Replace(ctx,
		[]domain.Asset{kept, dangling, flagged, collide},
		[]*domain.Folder{{ID: "fld-remote", Name: "Remote", Category: domain.CategorySounds}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Folders)
	assert.Equal(t, 1, res.ClearedRefs)
	assert.Len(t, res.Skipped, 2)

	all, err := s.Spells.GetAll(ctx)
	require.NoError(t, err)
	byID := make(map[string]*domain.Spell, len(all))
	for _, sp := range all {
		byID[sp.ID] = sp
	}
	assert.Len(t, byID, 3)
	assert.Contains(t, byID, "spell-core")
	assert.Equal(t, "Built-in spell-core", byID["spell-core"].Name)
	assert.Equal(t, "fld-remote", byID["spell-new"].FolderID)
	assert.Empty(t, byID["spell-dangling"].FolderID)
	assert.NotContains(t, byID, "spell-old")

	folders, err := s.ListFolders(ctx, domain.CategorySpells)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "fld-remote", folders[0].ID)
	assert.Equal(t, domain.CategorySpells, folders[0].Category)

	_, err = s.GetFolder(ctx, oldFolder.ID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCollection_ReplaceSkipsFoldersOfOtherCategories(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	enemyFolder, err := s.CreateFolder(ctx, "Bosses", domain.CategoryEnemies)
	require.NoError(t, err)

	coll, err := s.Collection(domain.CategorySpells)
	require.NoError(t, err)

	sp := newSpell("spell-1", "One")
	sp.FolderID = enemyFolder.ID
	res, err := coll.Replace(ctx,
		[]domain.Asset{sp},
		[]*domain.Folder{
			{ID: enemyFolder.ID, Name: "Hijacked"},
			{ID: "idx:folder", Name: "Bad id"},
			{ID: "fld-blank", Name: "   "},
		})
	require.NoError(t, err)

	assert.Zero(t, res.Folders)
	assert.Len(t, res.Skipped, 3)
	assert.Equal(t, 1, res.ClearedRefs)

	got, err := s.GetFolder(ctx, enemyFolder.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEnemies, got.Category)
	assert.Equal(t, "Bosses", got.Name)

	spells, err := s.ListFolders(ctx, domain.CategorySpells)
	require.NoError(t, err)
	assert.Empty(t, spells)

	saved, err := s.Spells.Get(ctx, "spell-1")
	require.NoError(t, err)
	assert.Empty(t, saved.FolderID)
}

func TestCollection_IDsCannotShadowIndexKeys(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Spells.Save(ctx, newSpell("idx:fireball", "Fireball"))
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "id")

	_, err = s.Spells.Get(ctx, "idx:fireball")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	coll, err := s.Collection(domain.CategorySpells)
	require.NoError(t, err)
	res, err := coll.Replace(ctx, []domain.Asset{newSpell("idx:remote", "Remote")}, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Written)
	assert.Len(t, res.Skipped, 1)

	count, err := s.Spells.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollection_SaveTrimsName(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Spells.Save(ctx, newSpell("spell-blank", "   "))
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-1", "  Zap  ")))
	got, err := s.Spells.Get(ctx, "spell-1")
	require.NoError(t, err)
	assert.Equal(t, "Zap", got.Name)
}

func TestCollection_ReplaceReindexes(t *testing.T) {
	s, emitter := setupEmittingStore(t)
	ctx := context.Background()

	idx := &recordingIndexer{}
	s.SetIndexer(idx)

	coll, err := s.Collection(domain.CategorySpells)
	require.NoError(t, err)
	_, err = coll.Replace(ctx, []domain.Asset{newSpell("spell-1", "One")}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, idx.reindexed[domain.CategorySpells])
	assert.Contains(t, emitter.types(), sse.EventCategoryReplaced)
}

func TestCollection_SeedBuiltIns(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.Spells.Save(ctx, newSpell("spell-mine", "Mine")))

	coll, err := s.Collection(domain.CategorySpells)
	require.NoError(t, err)

	res, err := coll.SeedBuiltIns(ctx, []domain.Asset{
		newSpell("spell-a", "A"),
		newSpell("spell-b", "B"),
		newSpell("spell-mine", "Shadowed"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, []string{"spell-mine"}, res.Skipped)

	// A second seed without spell-b removes it.
	res, err = coll.SeedBuiltIns(ctx, []domain.Asset{newSpell("spell-a", "A2")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Removed)

	all, err := s.Spells.GetAll(ctx)
	require.NoError(t, err)
	names := make(map[string]string)
	for _, sp := range all {
		names[sp.ID] = sp.Name
	}
	assert.Equal(t, map[string]string{"spell-a": "A2", "spell-mine": "Mine"}, names)
}

func TestCollection_Snapshot(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	f, err := s.CreateFolder(ctx, "Bosses", domain.CategoryEnemies)
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, "Other", domain.CategorySpells)
	require.NoError(t, err)

	e := &domain.Enemy{AssetMeta: domain.AssetMeta{ID: "enemy-1", Name: "Dragon", FolderID: f.ID}}
	e.ApplyDefaults()
	require.NoError(t, s.Enemies.Save(ctx, e))

	coll, err := s.Collection(domain.CategoryEnemies)
	require.NoError(t, err)
	snap, err := coll.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryEnemies, snap.Category)
	require.Len(t, snap.Assets, 1)
	assert.Equal(t, "enemy-1", snap.Assets[0].Meta().ID)
	require.Len(t, snap.Folders, 1)
	assert.Equal(t, f.ID, snap.Folders[0].ID)
}

func TestCollection_Decode(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	coll, err := s.Collection(domain.CategorySounds)
	require.NoError(t, err)

	assets, err := coll.Decode([]byte(`[{"id":"sound-1","name":"Boom","volume":0.5}]`))
	require.NoError(t, err)
	require.Len(t, assets, 1)

	snd, ok := assets[0].(*domain.Sound)
	require.True(t, ok)
	assert.Equal(t, 0.5, snd.Volume)

	_, err = coll.Decode([]byte(`{"not":"an array"}`))
	require.Error(t, err)
}

func TestStore_CollectionsInCategoryOrder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	colls := s.Collections()
	require.Len(t, colls, len(domain.AllCategories()))
	for i, c := range domain.AllCategories() {
		assert.Equal(t, c, colls[i].Category())
	}

	_, err := s.Collection("weapons")
	require.Error(t, err)
}
