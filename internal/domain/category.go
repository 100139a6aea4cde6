package domain

import (
	"fmt"
	"strings"
)

// Category partitions assets. The set is closed; see AllCategories.
type Category string

// Asset categories.
const (
	CategorySpells        Category = "spells"
	CategoryCollectibles  Category = "collectibles"
	CategoryCharacters    Category = "characters"
	CategoryEnemies       Category = "enemies"
	CategorySpecialTiles  Category = "special_tiles"
	CategoryStatusEffects Category = "status_effects"
	CategorySounds        Category = "sounds"
	CategoryHelp          Category = "help"
)

var allCategories = []Category{
	CategorySpells,
	CategoryCollectibles,
	CategoryCharacters,
	CategoryEnemies,
	CategorySpecialTiles,
	CategoryStatusEffects,
	CategorySounds,
	CategoryHelp,
}

// AllCategories returns every category in display and sync order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory validates a category name. Matching is case-insensitive and
// accepts dashes in place of underscores ("special-tiles").
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IDPrefix returns the prefix used for generated ids in this category.
func (c Category) IDPrefix() string {
	switch c {
	case CategorySpells:
		return "spell"
	case CategoryCollectibles:
		return "item"
	case CategoryCharacters:
		return "char"
	case CategoryEnemies:
		return "enemy"
	case CategorySpecialTiles:
		return "tile"
	case CategoryStatusEffects:
		return "status"
	case CategorySounds:
		return "sound"
	case CategoryHelp:
		return "help"
	default:
		return "asset"
	}
}

// Label is the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategorySpecialTiles:
		return "Special Tiles"
	case CategoryStatusEffects:
		return "Status Effects"
	case CategoryHelp:
		return "Help"
	default:
		s := string(c)
		if s == "" {
			return ""
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
}

// NewAsset returns an empty record of the category's variant type.
func NewAsset(c Category) (Asset, error) {
	switch c {
	case CategorySpells:
		return &Spell{}, nil
	case CategoryCollectibles:
		return &Collectible{}, nil
	case CategoryCharacters:
		return &Character{}, nil
	case CategoryEnemies:
		return &Enemy{}, nil
	case CategorySpecialTiles:
		return &TileType{}, nil
	case CategoryStatusEffects:
		return &StatusEffect{}, nil
	case CategorySounds:
		return &Sound{}, nil
	case CategoryHelp:
		return &HelpSection{}, nil
	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}
}
