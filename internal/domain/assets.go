package domain

import "strings"

// AreaPattern is the set of tiles a spell affects around its target.
type AreaPattern struct {
	Shape  string `json:"shape" validate:"oneof=single line cross square circle"`
	Radius int    `json:"radius" validate:"gte=0,lte=5"`
}

// Stats are the combat attributes shared by characters and enemies.
type Stats struct {
	Health  int `json:"health" validate:"gte=1,lte=9999"`
	Mana    int `json:"mana" validate:"gte=0,lte=9999"`
	Attack  int `json:"attack" validate:"gte=0,lte=999"`
	Defense int `json:"defense" validate:"gte=0,lte=999"`
	Speed   int `json:"speed" validate:"gte=0,lte=99"`
}

// SpriteSheet describes an animated sprite strip.
type SpriteSheet struct {
	Image       string `json:"image,omitempty"`
	FrameWidth  int    `json:"frame_width" validate:"gte=1,lte=256"`
	FrameHeight int    `json:"frame_height" validate:"gte=1,lte=256"`
	Frames      int    `json:"frames" validate:"gte=1,lte=64"`
	FPS         int    `json:"fps" validate:"gte=1,lte=60"`
}

// Spell is a castable ability.
type Spell struct {
	AssetMeta
	Area            AreaPattern `json:"area"`
	Description     string      `json:"description" validate:"max=2000"`
	School          string      `json:"school" validate:"oneof=fire frost arcane nature shadow holy"`
	Sprite          string      `json:"sprite,omitempty"`
	CastSoundID     string      `json:"cast_sound_id,omitempty"`
	ImpactSoundID   string      `json:"impact_sound_id,omitempty"`
	StatusEffectID  string      `json:"status_effect_id,omitempty"`
	ManaCost        int         `json:"mana_cost" validate:"gte=0,lte=999"`
	CooldownTurns   int         `json:"cooldown_turns" validate:"gte=0,lte=99"`
	Range           int         `json:"range" validate:"gte=0,lte=20"`
	Damage          int         `json:"damage" validate:"gte=0,lte=9999"`
	Heal            int         `json:"heal" validate:"gte=0,lte=9999"`
	StatusDuration  int         `json:"status_duration" validate:"gte=0,lte=99"`
	ProjectileSpeed float64     `json:"projectile_speed" validate:"gte=0,lte=100"`
}

// Category implements Asset.
func (s *Spell) Category() Category { return CategorySpells }

// SearchText implements Asset.
func (s *Spell) SearchText() string { return joinText(s.Name, s.School, s.Description) }

// References implements Asset.
func (s *Spell) References() []Reference {
	return refs(
		Reference{Field: "cast_sound_id", Category: CategorySounds, ID: s.CastSoundID},
		Reference{Field: "impact_sound_id", Category: CategorySounds, ID: s.ImpactSoundID},
		Reference{Field: "status_effect_id", Category: CategoryStatusEffects, ID: s.StatusEffectID},
	)
}

// ApplyDefaults implements Asset.
func (s *Spell) ApplyDefaults() {
	s.School = "arcane"
	s.ManaCost = 10
	s.Range = 1
	s.Damage = 10
	s.Area = AreaPattern{Shape: "single"}
	s.ProjectileSpeed = 8
}

// Effect is what using a collectible does.
type Effect struct {
	Kind   string `json:"kind" validate:"oneof=none heal mana buff key gold"`
	Amount int    `json:"amount" validate:"gte=0,lte=9999"`
}

// Collectible is an item that can be picked up.
type Collectible struct {
	AssetMeta
	Effect         Effect `json:"effect"`
	Description    string `json:"description" validate:"max=2000"`
	Rarity         string `json:"rarity" validate:"oneof=common uncommon rare epic legendary"`
	Sprite         string `json:"sprite,omitempty"`
	PickupSoundID  string `json:"pickup_sound_id,omitempty"`
	StatusEffectID string `json:"status_effect_id,omitempty"`
	Value          int    `json:"value" validate:"gte=0,lte=999999"`
	MaxStack       int    `json:"max_stack" validate:"gte=1,lte=999"`
	Stackable      bool   `json:"stackable"`
}

// Category implements Asset.
func (c *Collectible) Category() Category { return CategoryCollectibles }

// SearchText implements Asset.
func (c *Collectible) SearchText() string { return joinText(c.Name, c.Rarity, c.Description) }

// References implements Asset.
func (c *Collectible) References() []Reference {
	return refs(
		Reference{Field: "pickup_sound_id", Category: CategorySounds, ID: c.PickupSoundID},
		Reference{Field: "status_effect_id", Category: CategoryStatusEffects, ID: c.StatusEffectID},
	)
}

// ApplyDefaults implements Asset.
func (c *Collectible) ApplyDefaults() {
	c.Rarity = "common"
	c.MaxStack = 1
	c.Effect = Effect{Kind: "none"}
}

// Character is a playable hero.
type Character struct {
	AssetMeta
	SpriteSheet      SpriteSheet `json:"sprite_sheet"`
	Stats            Stats       `json:"stats"`
	Description      string      `json:"description" validate:"max=2000"`
	Class            string      `json:"class" validate:"oneof=warrior mage rogue cleric ranger"`
	StartingSpellIDs []string    `json:"starting_spell_ids,omitempty"`
	Facings          int         `json:"facings" validate:"oneof=1 4 8"`
}

// Category implements Asset.
func (c *Character) Category() Category { return CategoryCharacters }

// SearchText implements Asset.
func (c *Character) SearchText() string { return joinText(c.Name, c.Class, c.Description) }

// References implements Asset.
func (c *Character) References() []Reference {
	out := make([]Reference, 0, len(c.StartingSpellIDs))
	for _, id := range c.StartingSpellIDs {
		out = append(out, Reference{Field: "starting_spell_ids", Category: CategorySpells, ID: id})
	}
	return refs(out...)
}

// ApplyDefaults implements Asset.
func (c *Character) ApplyDefaults() {
	c.Class = "warrior"
	c.Stats = Stats{Health: 100, Mana: 20, Attack: 10, Defense: 5, Speed: 5}
	c.SpriteSheet = SpriteSheet{FrameWidth: 32, FrameHeight: 32, Frames: 4, FPS: 8}
	c.Facings = 4
}

// LootEntry is one roll on an enemy's loot table.
type LootEntry struct {
	CollectibleID string  `json:"collectible_id" validate:"required"`
	Chance        float64 `json:"chance" validate:"gte=0,lte=1"`
}

// Enemy is a hostile creature.
type Enemy struct {
	AssetMeta
	SpriteSheet   SpriteSheet `json:"sprite_sheet"`
	Stats         Stats       `json:"stats"`
	Description   string      `json:"description" validate:"max=2000"`
	Behavior      string      `json:"behavior" validate:"oneof=idle patrol chase ranged"`
	AttackSoundID string      `json:"attack_sound_id,omitempty"`
	DeathSoundID  string      `json:"death_sound_id,omitempty"`
	Loot          []LootEntry `json:"loot,omitempty" validate:"dive"`
	SpellIDs      []string    `json:"spell_ids,omitempty"`
	AggroRange    int         `json:"aggro_range" validate:"gte=0,lte=20"`
	XPReward      int         `json:"xp_reward" validate:"gte=0,lte=99999"`
}

// Category implements Asset.
func (e *Enemy) Category() Category { return CategoryEnemies }

// SearchText implements Asset.
func (e *Enemy) SearchText() string { return joinText(e.Name, e.Behavior, e.Description) }

// References implements Asset.
func (e *Enemy) References() []Reference {
	out := []Reference{
		{Field: "attack_sound_id", Category: CategorySounds, ID: e.AttackSoundID},
		{Field: "death_sound_id", Category: CategorySounds, ID: e.DeathSoundID},
	}
	for _, l := range e.Loot {
		out = append(out, Reference{Field: "loot", Category: CategoryCollectibles, ID: l.CollectibleID})
	}
	for _, id := range e.SpellIDs {
		out = append(out, Reference{Field: "spell_ids", Category: CategorySpells, ID: id})
	}
	return refs(out...)
}

// ApplyDefaults implements Asset.
func (e *Enemy) ApplyDefaults() {
	e.Behavior = "idle"
	e.Stats = Stats{Health: 30, Attack: 5, Defense: 2, Speed: 3}
	e.SpriteSheet = SpriteSheet{FrameWidth: 32, FrameHeight: 32, Frames: 2, FPS: 4}
	e.AggroRange = 5
	e.XPReward = 10
}

// TileType is a special map tile.
type TileType struct {
	AssetMeta
	Description    string `json:"description" validate:"max=2000"`
	StatusEffectID string `json:"status_effect_id,omitempty"`
	Color          string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Sprite         string `json:"sprite,omitempty"`
	DamagePerTurn  int    `json:"damage_per_turn" validate:"gte=0,lte=999"`
	Walkable       bool   `json:"walkable"`
	BlocksSight    bool   `json:"blocks_sight"`
}

// Category implements Asset.
func (t *TileType) Category() Category { return CategorySpecialTiles }

// SearchText implements Asset.
func (t *TileType) SearchText() string { return joinText(t.Name, t.Description) }

// References implements Asset.
func (t *TileType) References() []Reference {
	return refs(Reference{Field: "status_effect_id", Category: CategoryStatusEffects, ID: t.StatusEffectID})
}

// ApplyDefaults implements Asset.
func (t *TileType) ApplyDefaults() {
	t.Walkable = true
	t.Color = "#808080"
}

// StatModifiers are additive stat changes applied while an effect lasts.
type StatModifiers struct {
	Attack  int `json:"attack" validate:"gte=-999,lte=999"`
	Defense int `json:"defense" validate:"gte=-999,lte=999"`
	Speed   int `json:"speed" validate:"gte=-99,lte=99"`
}

// StatusEffect is a buff or debuff applied over several turns.
type StatusEffect struct {
	AssetMeta
	Modifiers     StatModifiers `json:"modifiers"`
	Description   string        `json:"description" validate:"max=2000"`
	Kind          string        `json:"kind" validate:"oneof=buff debuff"`
	Icon          string        `json:"icon,omitempty"`
	Color         string        `json:"color,omitempty" validate:"omitempty,hexcolor"`
	DurationTurns int           `json:"duration_turns" validate:"gte=1,lte=99"`
	TickDamage    int           `json:"tick_damage" validate:"gte=0,lte=999"`
	TickHeal      int           `json:"tick_heal" validate:"gte=0,lte=999"`
	Stackable     bool          `json:"stackable"`
}

// Category implements Asset.
func (s *StatusEffect) Category() Category { return CategoryStatusEffects }

// SearchText implements Asset.
func (s *StatusEffect) SearchText() string { return joinText(s.Name, s.Kind, s.Description) }

// References implements Asset.
func (s *StatusEffect) References() []Reference { return nil }

// ApplyDefaults implements Asset.
func (s *StatusEffect) ApplyDefaults() {
	s.Kind = "buff"
	s.DurationTurns = 3
	s.Color = "#ffffff"
}

// Sound is an audio clip referenced by other assets.
type Sound struct {
	AssetMeta
	URL    string  `json:"url,omitempty" validate:"omitempty,url"`
	Volume float64 `json:"volume" validate:"gte=0,lte=1"`
	Loop   bool    `json:"loop"`
}

// Category implements Asset.
func (s *Sound) Category() Category { return CategorySounds }

// SearchText implements Asset.
func (s *Sound) SearchText() string { return s.Name }

// References implements Asset.
func (s *Sound) References() []Reference { return nil }

// ApplyDefaults implements Asset.
func (s *Sound) ApplyDefaults() {
	s.Volume = 1
}

// HelpSection is a page of in-game help text. Content is HTML restricted to
// the sanitizer's allow-list.
type HelpSection struct {
	AssetMeta
	Title     string `json:"title" validate:"max=200"`
	Content   string `json:"content" validate:"max=100000"`
	SortOrder int    `json:"sort_order"`
}

// Category implements Asset.
func (h *HelpSection) Category() Category { return CategoryHelp }

// SearchText implements Asset.
func (h *HelpSection) SearchText() string { return joinText(h.Name, h.Title, h.Content) }

// References implements Asset.
func (h *HelpSection) References() []Reference { return nil }

// ApplyDefaults implements Asset.
func (h *HelpSection) ApplyDefaults() {
	h.Content = "<p></p>"
}

// SanitizeHTML implements HTMLContent.
func (h *HelpSection) SanitizeHTML(clean func(string) string) {
	h.Content = clean(h.Content)
}

// DisplayTitle falls back to the record name when no title is set.
func (h *HelpSection) DisplayTitle() string {
	if h.Title != "" {
		return h.Title
	}
	return h.Name
}

func joinText(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
