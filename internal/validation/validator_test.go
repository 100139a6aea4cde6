package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/validation"
)

func validSpell() *domain.Spell {
	s := &domain.Spell{AssetMeta: domain.AssetMeta{ID: "spell-1", Name: "Fireball"}}
	s.ApplyDefaults()
	return s
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(validSpell()))
}

func TestValidator_DefaultsAreValid(t *testing.T) {
	v := validation.New()

	for _, c := range domain.AllCategories() {
		t.Run(string(c), func(t *testing.T) {
			a, err := domain.NewAsset(c)
			require.NoError(t, err)
			a.ApplyDefaults()
			a.Meta().ID = c.IDPrefix() + "-1"
			a.Meta().Name = "New " + c.Label()

			assert.NoError(t, v.Validate(a))
		})
	}
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	//nolint:govet // fieldalignment: test table
	tests := []struct {
		name      string
		mutate    func(s *domain.Spell)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing name",
			mutate:    func(s *domain.Spell) { s.Name = "" },
			wantField: "name",
			wantMsg:   "is required",
		},
		{
			name:      "missing id",
			mutate:    func(s *domain.Spell) { s.ID = "" },
			wantField: "id",
			wantMsg:   "is required",
		},
		{
			name:      "id with key separator",
			mutate:    func(s *domain.Spell) { s.ID = "idx:fireball" },
			wantField: "id",
			wantMsg:   `must not contain ":"`,
		},
		{
			name:      "name too long",
			mutate:    func(s *domain.Spell) { s.Name = strings.Repeat("x", 121) },
			wantField: "name",
			wantMsg:   "must not exceed 120 characters",
		},
		{
			name:      "unknown school",
			mutate:    func(s *domain.Spell) { s.School = "lightning" },
			wantField: "school",
			wantMsg:   "must be one of: fire frost arcane nature shadow holy",
		},
		{
			name:      "nested field",
			mutate:    func(s *domain.Spell) { s.Area.Radius = 9 },
			wantField: "area.radius",
			wantMsg:   "must be less than or equal to 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpell()
			tt.mutate(s)

			err := v.Validate(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	s := validSpell()
	s.ManaCost = -1

	err := v.Validate(s)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "mana_cost")
	assert.NotContains(t, err.Error(), "ManaCost")
	assert.NotContains(t, err.Error(), "Spell.")
}

func TestValidator_HexColorAndURL(t *testing.T) {
	v := validation.New()

	tile := &domain.TileType{AssetMeta: domain.AssetMeta{ID: "tile-1", Name: "Lava"}}
	tile.ApplyDefaults()
	tile.Color = "orange"
	err := v.Validate(tile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color")

	snd := &domain.Sound{AssetMeta: domain.AssetMeta{ID: "sound-1", Name: "Boom"}}
	snd.ApplyDefaults()
	snd.URL = "not a url"
	err = v.Validate(snd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("name", "Potions", "required,max=80"))

	err := v.Var("name", "", "required,max=80")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, "name is required", err.Error())
}
