package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/compendium"
	"github.com/cryptforge/forge-studio/internal/domain"
)

func TestCompendium_Overview(t *testing.T) {
	ts := setupTestServer(t)
	f, err := ts.store.CreateFolder(context.Background(), "Fire", domain.CategorySpells)
	require.NoError(t, err)
	saveSpell(t, ts.store, "spell-1", "Fireball", f.ID)
	saveSpell(t, ts.store, "spell-2", "Heal", "")
	seedBuiltInSpell(t, ts.store, "spell-b1", "Zap")

	resp := ts.api.Get("/api/v1/compendium")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var overview compendium.Overview
	decodeData(t, resp, &overview)
	assert.Equal(t, 3, overview.Total)

	spells := overview.Categories[0]
	assert.Equal(t, domain.CategorySpells, spells.Category)
	assert.Equal(t, 3, spells.Total)
	assert.Equal(t, 1, spells.BuiltIn)
	assert.Equal(t, 2, spells.Custom)
	require.Len(t, spells.Folders, 1)
	assert.Equal(t, 1, spells.Folders[0].Count)
}

func TestCompendium_BrowseDisplayOrder(t *testing.T) {
	ts := setupTestServer(t)
	saveSpell(t, ts.store, "spell-1", "banana", "")
	saveSpell(t, ts.store, "spell-2", "Apple", "")
	seedBuiltInSpell(t, ts.store, "spell-b1", "Zap")

	resp := ts.api.Get("/api/v1/compendium/spells")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got []domain.Spell
	decodeData(t, resp, &got)
	require.Len(t, got, 3)
	assert.Equal(t, "Zap", got[0].Name)
	assert.Equal(t, "Apple", got[1].Name)
	assert.Equal(t, "banana", got[2].Name)

	resp = ts.api.Get("/api/v1/compendium/spells?include_builtin=false&q=apple")
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "spell-2", got[0].ID)

	resp = ts.api.Get("/api/v1/compendium/weapons")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCompendium_Search(t *testing.T) {
	ts := setupTestServer(t)
	saveSpell(t, ts.store, "spell-1", "Fireball", "")

	resp := ts.api.Get("/api/v1/compendium/search?q=fireball")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var hits []compendium.Hit
	decodeData(t, resp, &hits)
	require.NotEmpty(t, hits)
	assert.Equal(t, "spell-1", hits[0].ID)
	assert.Equal(t, domain.CategorySpells, hits[0].Category)

	resp = ts.api.Get("/api/v1/compendium/search?q=fireball&category=enemies,sounds")
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &hits)
	assert.Empty(t, hits)

	resp = ts.api.Get("/api/v1/compendium/search?q=fireball&category=weapons")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/api/v1/compendium/search")
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &hits)
	assert.Empty(t, hits)
}

func TestCompendium_References(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	boom := &domain.Sound{AssetMeta: domain.AssetMeta{ID: "sound-1", Name: "Boom"}}
	boom.ApplyDefaults()
	require.NoError(t, ts.store.Sounds.Save(ctx, boom))

	sp := &domain.Spell{AssetMeta: domain.AssetMeta{ID: "spell-1", Name: "Fireball"}}
	sp.ApplyDefaults()
	sp.CastSoundID = "sound-1"
	sp.ImpactSoundID = "sound-gone"
	require.NoError(t, ts.store.Spells.Save(ctx, sp))

	resp := ts.api.Get("/api/v1/compendium/spells/spell-1/references")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var refs []struct {
		Target   map[string]any  `json:"target"`
		Field    string          `json:"field"`
		Category domain.Category `json:"category"`
		ID       string          `json:"id"`
	}
	decodeData(t, resp, &refs)
	require.Len(t, refs, 2)

	byField := map[string]int{}
	for i, r := range refs {
		byField[r.Field] = i
	}
	cast := refs[byField["cast_sound_id"]]
	assert.Equal(t, "Boom", cast.Target["name"])
	impact := refs[byField["impact_sound_id"]]
	assert.Equal(t, "sound-gone", impact.ID)
	assert.Nil(t, impact.Target)

	resp = ts.api.Get("/api/v1/compendium/spells/spell-missing/references")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCompendium_ExportHelpMarkdown(t *testing.T) {
	ts := setupTestServer(t)
	h := &domain.HelpSection{
		AssetMeta: domain.AssetMeta{ID: "help-1", Name: "basics"},
		Title:     "Getting Started",
		Content:   "<p>Press <strong>E</strong> to open the editor.</p>",
	}
	require.NoError(t, ts.store.Help.Save(context.Background(), h))

	resp := ts.api.Get("/api/v1/compendium/help.md")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/markdown")

	body := resp.Body.String()
	assert.Contains(t, body, "## Getting Started")
	assert.Contains(t, body, "**E**")
	assert.NotContains(t, body, `"success"`)
}
