// Package store persists studio assets and folders in an embedded badger database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/logger"
	"github.com/cryptforge/forge-studio/internal/validation"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// AssetIndexer keeps a search index in step with store writes.
type AssetIndexer interface {
	IndexAsset(ctx context.Context, a domain.Asset) error
	RemoveAsset(ctx context.Context, c domain.Category, id string) error
	ReindexCategory(ctx context.Context, c domain.Category, assets []domain.Asset) error
}

// Store wraps a Badger database instance.
type Store struct {
	db        *badger.DB
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time

	eventEmitter EventEmitter

	// Set after creation; the compendium needs a store to build its index.
	indexer  AssetIndexer
	sanitize func(string) string

	Folders *Entity[domain.Folder]

	Spells        *Collection[domain.Spell, *domain.Spell]
	Collectibles  *Collection[domain.Collectible, *domain.Collectible]
	Characters    *Collection[domain.Character, *domain.Character]
	Enemies       *Collection[domain.Enemy, *domain.Enemy]
	SpecialTiles  *Collection[domain.TileType, *domain.TileType]
	StatusEffects *Collection[domain.StatusEffect, *domain.StatusEffect]
	Sounds        *Collection[domain.Sound, *domain.Sound]
	Help          *Collection[domain.HelpSection, *domain.HelpSection]

	collections map[domain.Category]AnyCollection
}

// New creates a new Store instance with the given database path and event emitter.
func New(path string, log *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Every save is durable before it returns
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if log == nil {
		log = logger.Discard()
	}
	if emitter == nil {
		emitter = NewNoopEmitter()
	}

	s := &Store{
		db:           db,
		logger:       log,
		validator:    validation.New(),
		now:          func() time.Time { return time.Now().UTC() },
		eventEmitter: emitter,
		collections:  make(map[domain.Category]AnyCollection),
	}

	s.Folders = NewEntity[domain.Folder](s, folderPrefix).
		WithIndex("category", func(f *domain.Folder) []string {
			return []string{string(f.Category)}
		})

	s.Spells = register(s, NewCollection[domain.Spell](s, domain.CategorySpells))
	s.Collectibles = register(s, NewCollection[domain.Collectible](s, domain.CategoryCollectibles))
	s.Characters = register(s, NewCollection[domain.Character](s, domain.CategoryCharacters))
	s.Enemies = register(s, NewCollection[domain.Enemy](s, domain.CategoryEnemies))
	s.SpecialTiles = register(s, NewCollection[domain.TileType](s, domain.CategorySpecialTiles))
	s.StatusEffects = register(s, NewCollection[domain.StatusEffect](s, domain.CategoryStatusEffects))
	s.Sounds = register(s, NewCollection[domain.Sound](s, domain.CategorySounds))
	s.Help = register(s, NewCollection[domain.HelpSection](s, domain.CategoryHelp))

	s.logger.Info("Badger database opened successfully", "path", path)

	return s, nil
}

func register[T any, P domain.Record[T]](s *Store, c *Collection[T, P]) *Collection[T, P] {
	s.collections[c.Category()] = c
	return c
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// SetIndexer sets the search indexer notified after every write.
func (s *Store) SetIndexer(indexer AssetIndexer) {
	s.indexer = indexer
}

// SetSanitizer sets the HTML cleaner applied to rich-text fields on save.
func (s *Store) SetSanitizer(fn func(string) string) {
	s.sanitize = fn
}

// SetClock overrides the time source used for record timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Collection returns the untyped view of a category's collection.
func (s *Store) Collection(c domain.Category) (AnyCollection, error) {
	coll, ok := s.collections[c]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", c)
	}
	return coll, nil
}

// Collections returns every collection in category order.
func (s *Store) Collections() []AnyCollection {
	out := make([]AnyCollection, 0, len(s.collections))
	for _, c := range domain.AllCategories() {
		out = append(out, s.collections[c])
	}
	return out
}

func (s *Store) emit(event any) {
	s.eventEmitter.Emit(event)
}

// updateIndex runs after a committed write. Index failures are logged and
// never fail the write; the index is rebuilt from the store on startup.
func (s *Store) updateIndex(ctx context.Context, fn func(ctx context.Context, idx AssetIndexer) error) {
	if s.indexer == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), s.indexer); err != nil {
		s.logger.Warn("search index update failed", "error", err)
	}
}

// get retrieves a JSON value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a JSON value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}
