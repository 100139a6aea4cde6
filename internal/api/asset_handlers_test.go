package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
)

func TestCreateAsset_FromDefaults(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/spells")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var sp domain.Spell
	decodeData(t, resp, &sp)
	assert.Contains(t, sp.ID, "spell-")
	assert.Equal(t, "Untitled", sp.Name)
	assert.Equal(t, "arcane", sp.School)
	assert.False(t, sp.BuiltIn)
	assert.False(t, sp.CreatedAt.IsZero())

	stored, err := ts.store.Spells.Get(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, sp.Name, stored.Name)
}

func TestCreateAsset_BodyOverridesDefaults(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/spells", map[string]any{
		"id":       "spell-chosen",
		"name":     "Frost Nova",
		"school":   "frost",
		"built_in": true,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var sp domain.Spell
	decodeData(t, resp, &sp)
	assert.Equal(t, "Frost Nova", sp.Name)
	assert.Equal(t, "frost", sp.School)
	assert.NotEqual(t, "spell-chosen", sp.ID, "ids are always generated")
	assert.False(t, sp.BuiltIn)
	assert.Equal(t, 10, sp.ManaCost, "unset fields keep defaults")
}

func TestCreateAsset_ValidationError(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/spells", map[string]any{"school": "lightning"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, string(domainerrors.CodeValidation), env.Code)
	assert.Contains(t, string(env.Details), "school")
}

func TestCreateAsset_SanitizesHelp(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/help", map[string]any{
		"name":    "Basics",
		"content": `<p>Hello<script>alert(1)</script></p>`,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var h domain.HelpSection
	decodeData(t, resp, &h)
	assert.NotContains(t, h.Content, "script")
	assert.Contains(t, h.Content, "<p>Hello")
}

func TestGetAsset(t *testing.T) {
	ts := setupTestServer(t)
	saveSpell(t, ts.store, "spell-1", "Fireball", "")

	resp := ts.api.Get("/api/v1/spells/spell-1")
	require.Equal(t, http.StatusOK, resp.Code)
	var sp domain.Spell
	decodeData(t, resp, &sp)
	assert.Equal(t, "Fireball", sp.Name)

	resp = ts.api.Get("/api/v1/spells/spell-missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, string(domainerrors.CodeNotFound), env.Code)
}

func TestListAssets_FolderFilter(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	folder, err := ts.store.CreateFolder(ctx, "Fire", domain.CategorySpells)
	require.NoError(t, err)
	saveSpell(t, ts.store, "spell-1", "Fireball", folder.ID)
	saveSpell(t, ts.store, "spell-2", "Heal", "")
	seedBuiltInSpell(t, ts.store, "spell-b1", "Zap")

	//nolint:govet // fieldalignment: test table
	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "all", path: "/api/v1/spells", want: []string{"spell-1", "spell-2", "spell-b1"}},
		{name: "custom only", path: "/api/v1/spells?include_builtin=false", want: []string{"spell-1", "spell-2"}},
		{name: "in folder", path: "/api/v1/spells?folder=" + folder.ID, want: []string{"spell-1"}},
		{name: "uncategorized", path: "/api/v1/spells?folder=", want: []string{"spell-2", "spell-b1"}},
		{name: "unknown folder", path: "/api/v1/spells?folder=fld-none", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			var got []domain.Spell
			decodeData(t, resp, &got)
			ids := make([]string, 0, len(got))
			for _, sp := range got {
				ids = append(ids, sp.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestPutAsset_ReplacesWholeRecord(t *testing.T) {
	ts := setupTestServer(t)
	orig := saveSpell(t, ts.store, "spell-1", "Fireball", "")

	resp := ts.api.Put("/api/v1/spells/spell-1", map[string]any{
		"name":   "Greater Fireball",
		"school": "fire",
		"damage": 40,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var sp domain.Spell
	decodeData(t, resp, &sp)
	assert.Equal(t, "spell-1", sp.ID)
	assert.Equal(t, "Greater Fireball", sp.Name)
	assert.Equal(t, 40, sp.Damage)
	assert.True(t, orig.CreatedAt.Equal(sp.CreatedAt), "created_at survives a full replace")
}

func TestPutAsset_CreatesMissingRecord(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/sounds/sound-new", map[string]any{"name": "Boom"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got, err := ts.store.Sounds.Get(context.Background(), "sound-new")
	require.NoError(t, err)
	assert.Equal(t, "Boom", got.Name)
}

func TestPutAsset_BodyMustBeObject(t *testing.T) {
	ts := setupTestServer(t)

	//nolint:govet // fieldalignment: test table
	tests := []struct {
		name string
		args []any
	}{
		{name: "missing body", args: nil},
		{name: "string body", args: []any{"Content-Type: application/json", strings.NewReader(`"Boom"`)}},
		{name: "array body", args: []any{"Content-Type: application/json", strings.NewReader(`[{"name":"Boom"}]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Put("/api/v1/spells/spell-1", tt.args...)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Equal(t, string(domainerrors.CodeValidation), decodeEnvelope(t, resp).Code)
		})
	}

	_, err := ts.store.Spells.Get(context.Background(), "spell-1")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestPutAsset_RejectsKeySeparatorInID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/spells/idx:fireball", map[string]any{"name": "Fireball"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Contains(t, string(decodeEnvelope(t, resp).Details), "id")
}

func TestPutAsset_IDMismatch(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/spells/spell-1", map[string]any{"id": "spell-2", "name": "X"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(domainerrors.CodeValidation), decodeEnvelope(t, resp).Code)
}

func TestPutAsset_UnknownFolder(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/spells/spell-1", map[string]any{"name": "X", "folder_id": "fld-nope"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, string(decodeEnvelope(t, resp).Details), "folder_id")
}

func TestBuiltInAssets_AreProtected(t *testing.T) {
	ts := setupTestServer(t)
	seedBuiltInSpell(t, ts.store, "spell-b1", "Zap")

	resp := ts.api.Put("/api/v1/spells/spell-b1", map[string]any{"name": "Hacked"})
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, string(domainerrors.CodeProtected), decodeEnvelope(t, resp).Code)

	resp = ts.api.Delete("/api/v1/spells/spell-b1?confirm=true")
	require.Equal(t, http.StatusForbidden, resp.Code)

	got, err := ts.store.Spells.Get(context.Background(), "spell-b1")
	require.NoError(t, err)
	assert.Equal(t, "Zap", got.Name)
	assert.True(t, got.BuiltIn)
}

func TestDuplicateAsset(t *testing.T) {
	ts := setupTestServer(t)
	seedBuiltInSpell(t, ts.store, "spell-b1", "Zap")

	resp := ts.api.Post("/api/v1/spells/spell-b1/duplicate")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var dup domain.Spell
	decodeData(t, resp, &dup)
	assert.NotEqual(t, "spell-b1", dup.ID)
	assert.Equal(t, "Zap (copy)", dup.Name)
	assert.False(t, dup.BuiltIn)

	resp = ts.api.Post("/api/v1/spells/spell-missing/duplicate")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteAsset_RequiresConfirm(t *testing.T) {
	ts := setupTestServer(t)
	saveSpell(t, ts.store, "spell-1", "Fireball", "")

	resp := ts.api.Delete("/api/v1/spells/spell-1")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(domainerrors.CodeConfirmation), decodeEnvelope(t, resp).Code)

	_, err := ts.store.Spells.Get(context.Background(), "spell-1")
	require.NoError(t, err)

	resp = ts.api.Delete("/api/v1/spells/spell-1?confirm=true")
	require.Equal(t, http.StatusNoContent, resp.Code)

	_, err = ts.store.Spells.Get(context.Background(), "spell-1")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Deleting again is a no-op.
	resp = ts.api.Delete("/api/v1/spells/spell-1?confirm=true")
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)
	saveSpell(t, ts.store, "spell-1", "Fireball", "")

	resp := ts.api.Get("/api/v1/categories")
	require.Equal(t, http.StatusOK, resp.Code)

	var cats []CategoryResponse
	decodeData(t, resp, &cats)
	require.Len(t, cats, len(domain.AllCategories()))
	assert.Equal(t, "spells", cats[0].ID)
	assert.Equal(t, 1, cats[0].Count)
	assert.Equal(t, domain.CategorySpells.IDPrefix(), cats[0].IDPrefix)
}

func TestOperationID(t *testing.T) {
	assert.Equal(t, "listSpells", operationID("list", domain.CategorySpells))
	assert.Equal(t, "saveSpecialTiles", operationID("save", domain.CategorySpecialTiles))
	assert.Equal(t, "getStatusEffects", operationID("get", domain.CategoryStatusEffects))
}
