package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/sse"
)

// AnyCollection is the category-agnostic view of a Collection, used by cloud
// sync, built-in seeding and the compendium.
type AnyCollection interface {
	Category() domain.Category
	All(ctx context.Context) ([]domain.Asset, error)
	Filter(ctx context.Context, filter domain.FolderFilter, includeBuiltIn bool) ([]domain.Asset, error)
	Lookup(ctx context.Context, id string) (domain.Asset, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Decode(data []byte) ([]domain.Asset, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
	Replace(ctx context.Context, assets []domain.Asset, folders []*domain.Folder) (ReplaceResult, error)
	SeedBuiltIns(ctx context.Context, assets []domain.Asset) (SeedResult, error)

	clearFolderTxn(txn *badger.Txn, folderID string) (int, error)
}

// Snapshot is a consistent read of one category: its records and folders.
type Snapshot struct {
	Category domain.Category
	Assets   []domain.Asset
	Folders  []*domain.Folder
}

// ReplaceResult reports what Replace did.
type ReplaceResult struct {
	Removed     int      `json:"removed"`
	Written     int      `json:"written"`
	Folders     int      `json:"folders"`
	ClearedRefs int      `json:"cleared_refs"`
	Skipped     []string `json:"skipped,omitempty"`
}

// SeedResult reports what SeedBuiltIns did.
type SeedResult struct {
	Written int      `json:"written"`
	Removed int      `json:"removed"`
	Skipped []string `json:"skipped,omitempty"`
}

// Collection stores one category of assets under asset:<category>:<id>.
type Collection[T any, P domain.Record[T]] struct {
	store    *Store
	entity   *Entity[T]
	category domain.Category
}

// NewCollection creates the collection for category c. The record type's
// Category must equal c.
func NewCollection[T any, P domain.Record[T]](s *Store, c domain.Category) *Collection[T, P] {
	entity := NewEntity[T](s, assetKeyPrefix(c)).
		WithIndex("folder", func(t *T) []string {
			if fid := P(t).Meta().FolderID; fid != "" {
				return []string{fid}
			}
			return nil
		})
	return &Collection[T, P]{store: s, entity: entity, category: c}
}

// Category returns the collection's category.
func (c *Collection[T, P]) Category() domain.Category {
	return c.category
}

// Get returns the record with id, or a not found error.
func (c *Collection[T, P]) Get(ctx context.Context, id string) (P, error) {
	t, err := c.entity.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, assetNotFound(c.category, id)
	}
	if err != nil {
		return nil, err
	}
	return P(t), nil
}

// GetAll returns every record, built-ins included. Order is not defined.
func (c *Collection[T, P]) GetAll(ctx context.Context) ([]P, error) {
	return c.List(ctx, domain.AllFolders(), true)
}

// List returns the records passing filter. Built-ins are dropped unless
// includeBuiltIn is set.
func (c *Collection[T, P]) List(ctx context.Context, filter domain.FolderFilter, includeBuiltIn bool) ([]P, error) {
	keep := func(t *T) bool {
		m := P(t).Meta()
		return (includeBuiltIn || !m.BuiltIn) && filter.Matches(m.FolderID)
	}

	if folderID, ok := filter.FolderID(); ok {
		found, err := c.entity.ListByIndex(ctx, "folder", folderID)
		if err != nil {
			return nil, err
		}
		out := make([]P, 0, len(found))
		for _, t := range found {
			if keep(t) {
				out = append(out, P(t))
			}
		}
		return out, nil
	}

	var out []P
	for t, err := range c.entity.List(ctx) {
		if err != nil {
			return nil, err
		}
		if keep(t) {
			out = append(out, P(t))
		}
	}
	return out, nil
}

// Count returns the number of records, built-ins included.
func (c *Collection[T, P]) Count(ctx context.Context) (int, error) {
	return c.entity.Count(ctx)
}

// Save upserts rec, replacing any stored record with the same id.
//
// Save stamps CreatedAt/UpdatedAt and sanitizes HTML fields on rec itself.
// It fails with a validation error for missing id or name, invalid field
// values, or a folder that does not exist in this category, and with a
// protected error when either rec or the stored record is built-in.
func (c *Collection[T, P]) Save(ctx context.Context, rec P) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil {
		return domainerrors.Validation("record is required")
	}

	meta := rec.Meta()
	if meta.BuiltIn {
		return protected(c.category, meta.ID, "save")
	}
	meta.Name = strings.TrimSpace(meta.Name)
	if err := c.store.validator.Validate(rec); err != nil {
		return err
	}
	if html, ok := any(rec).(domain.HTMLContent); ok && c.store.sanitize != nil {
		html.SanitizeHTML(c.store.sanitize)
	}

	err := c.store.db.Update(func(txn *badger.Txn) error {
		existing, err := c.entity.getTxn(txn, meta.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			old := P(existing).Meta()
			if old.BuiltIn {
				return protected(c.category, meta.ID, "overwrite")
			}
			if meta.CreatedAt.IsZero() {
				meta.CreatedAt = old.CreatedAt
			}
		}

		if meta.FolderID != "" {
			if err := c.checkFolderTxn(txn, meta.FolderID); err != nil {
				return err
			}
		}

		meta.Touch(c.store.now())
		_, err = c.entity.putTxn(txn, meta.ID, (*T)(rec))
		return err
	})
	if err != nil {
		return err
	}

	c.store.logger.Debug("asset saved",
		slog.String("category", string(c.category)),
		slog.String("id", meta.ID))
	c.store.emit(sse.NewAssetSavedEvent(rec))
	c.store.updateIndex(ctx, func(ctx context.Context, idx AssetIndexer) error {
		return idx.IndexAsset(ctx, rec)
	})
	return nil
}

func (c *Collection[T, P]) checkFolderTxn(txn *badger.Txn, folderID string) error {
	folder, err := c.store.Folders.getTxn(txn, folderID)
	if errors.Is(err, ErrNotFound) {
		return domainerrors.ValidationWithDetails(
			fmt.Sprintf("folder %q does not exist", folderID),
			map[string]string{"folder_id": "must reference an existing folder"})
	}
	if err != nil {
		return err
	}
	if folder.Category != c.category {
		return domainerrors.ValidationWithDetails(
			fmt.Sprintf("folder %q belongs to %s, not %s", folderID, folder.Category, c.category),
			map[string]string{"folder_id": "must reference a folder of the same category"})
	}
	return nil
}

// Delete removes the record with id. Deleting a missing id is a no-op;
// deleting a built-in fails with a protected error and changes nothing.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deleted := false
	err := c.store.db.Update(func(txn *badger.Txn) error {
		existing, err := c.entity.getTxn(txn, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if P(existing).Meta().BuiltIn {
			return protected(c.category, id, "delete")
		}
		if _, err := c.entity.deleteTxn(txn, id); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil || !deleted {
		return err
	}

	c.store.logger.Debug("asset deleted",
		slog.String("category", string(c.category)),
		slog.String("id", id))
	c.store.emit(sse.NewAssetDeletedEvent(c.category, id))
	c.store.updateIndex(ctx, func(ctx context.Context, idx AssetIndexer) error {
		return idx.RemoveAsset(ctx, c.category, id)
	})
	return nil
}

// All implements AnyCollection.
func (c *Collection[T, P]) All(ctx context.Context) ([]domain.Asset, error) {
	return c.Filter(ctx, domain.AllFolders(), true)
}

// Filter implements AnyCollection.
func (c *Collection[T, P]) Filter(ctx context.Context, filter domain.FolderFilter, includeBuiltIn bool) ([]domain.Asset, error) {
	recs, err := c.List(ctx, filter, includeBuiltIn)
	if err != nil {
		return nil, err
	}
	return toAssets(recs), nil
}

// Lookup implements AnyCollection.
func (c *Collection[T, P]) Lookup(ctx context.Context, id string) (domain.Asset, error) {
	rec, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Decode parses a JSON array of this category's records.
func (c *Collection[T, P]) Decode(data []byte) ([]domain.Asset, error) {
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.category, err)
	}
	out := make([]domain.Asset, len(recs))
	for i := range recs {
		out[i] = P(&recs[i])
	}
	return out, nil
}

// Snapshot reads the category's records and folders in one transaction.
func (c *Collection[T, P]) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Category: c.category}
	err := c.store.db.View(func(txn *badger.Txn) error {
		if err := c.entity.eachTxn(ctx, txn, func(t *T) bool {
			snap.Assets = append(snap.Assets, P(t))
			return true
		}); err != nil {
			return err
		}
		folders, err := c.store.foldersTxn(txn, c.category)
		if err != nil {
			return err
		}
		snap.Folders = folders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Replace swaps the category's custom records and folders for the given
// ones in a single transaction. Built-in records stay untouched; incoming
// records that are flagged built-in, collide with a built-in id, or fail
// validation are skipped. Folder references that do not resolve to one of
// the new folders are cleared.
func (c *Collection[T, P]) Replace(ctx context.Context, assets []domain.Asset, folders []*domain.Folder) (ReplaceResult, error) {
	var res ReplaceResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	now := c.store.now()
	var written []domain.Asset

	err := c.store.db.Update(func(txn *badger.Txn) error {
		builtIn := make(map[string]bool)
		var custom []string
		if err := c.entity.eachTxn(ctx, txn, func(t *T) bool {
			m := P(t).Meta()
			if m.BuiltIn {
				builtIn[m.ID] = true
			} else {
				custom = append(custom, m.ID)
			}
			return true
		}); err != nil {
			return err
		}

		for _, id := range custom {
			if _, err := c.entity.deleteTxn(txn, id); err != nil {
				return err
			}
		}
		res.Removed = len(custom)

		oldFolders, err := c.store.Folders.idsByIndexTxn(txn, "category", string(c.category))
		if err != nil {
			return err
		}
		for _, id := range oldFolders {
			if _, err := c.store.Folders.deleteTxn(txn, id); err != nil {
				return err
			}
		}

		folderIDs := make(map[string]bool, len(folders))
		for _, f := range folders {
			if f == nil {
				continue
			}
			f.Category = c.category
			f.Name = strings.TrimSpace(f.Name)
			if err := c.store.validator.Validate(f); err != nil {
				res.Skipped = append(res.Skipped, fmt.Sprintf("folder %q: %v", f.ID, err))
				continue
			}
			// This category's folders are gone, so a surviving id belongs
			// to another category.
			other, err := c.store.Folders.getTxn(txn, f.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if other != nil {
				res.Skipped = append(res.Skipped, fmt.Sprintf("folder %q: id belongs to %s", f.ID, other.Category))
				continue
			}
			if f.CreatedAt.IsZero() {
				f.CreatedAt = now
			}
			if f.UpdatedAt.IsZero() {
				f.UpdatedAt = f.CreatedAt
			}
			if _, err := c.store.Folders.putTxn(txn, f.ID, f); err != nil {
				return err
			}
			folderIDs[f.ID] = true
		}
		res.Folders = len(folderIDs)

		for _, a := range assets {
			rec, ok := a.(P)
			if !ok || rec == nil {
				res.Skipped = append(res.Skipped, fmt.Sprintf("record of type %T is not a %s record", a, c.category))
				continue
			}
			m := rec.Meta()
			switch {
			case m.BuiltIn:
				res.Skipped = append(res.Skipped, fmt.Sprintf("%s: flagged built-in", m.ID))
				continue
			case builtIn[m.ID]:
				res.Skipped = append(res.Skipped, fmt.Sprintf("%s: collides with a built-in record", m.ID))
				continue
			}
			m.Name = strings.TrimSpace(m.Name)
			if err := c.store.validator.Validate(rec); err != nil {
				res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %v", m.ID, err))
				continue
			}
			if m.FolderID != "" && !folderIDs[m.FolderID] {
				m.FolderID = ""
				res.ClearedRefs++
			}
			if html, ok := any(rec).(domain.HTMLContent); ok && c.store.sanitize != nil {
				html.SanitizeHTML(c.store.sanitize)
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			if m.UpdatedAt.IsZero() {
				m.UpdatedAt = m.CreatedAt
			}
			if _, err := c.entity.putTxn(txn, m.ID, (*T)(rec)); err != nil {
				return err
			}
			written = append(written, rec)
		}
		res.Written = len(written)
		return nil
	})
	if err != nil {
		return ReplaceResult{}, fmt.Errorf("replace %s: %w", c.category, err)
	}

	c.store.logger.Info("category replaced",
		slog.String("category", string(c.category)),
		slog.Int("removed", res.Removed),
		slog.Int("written", res.Written),
		slog.Int("folders", res.Folders),
		slog.Int("skipped", len(res.Skipped)))
	c.store.emit(sse.NewCategoryReplacedEvent(c.category, "replace", res.Written))
	c.reindex(ctx)
	return res, nil
}

// SeedBuiltIns installs assets as the category's built-in set: each is
// flagged built-in and written, and built-ins missing from assets are
// removed. Custom records are never touched; an asset whose id belongs to a
// custom record is skipped.
func (c *Collection[T, P]) SeedBuiltIns(ctx context.Context, assets []domain.Asset) (SeedResult, error) {
	var res SeedResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	now := c.store.now()
	err := c.store.db.Update(func(txn *badger.Txn) error {
		stale := make(map[string]bool)
		custom := make(map[string]bool)
		if err := c.entity.eachTxn(ctx, txn, func(t *T) bool {
			m := P(t).Meta()
			if m.BuiltIn {
				stale[m.ID] = true
			} else {
				custom[m.ID] = true
			}
			return true
		}); err != nil {
			return err
		}

		for _, a := range assets {
			rec, ok := a.(P)
			if !ok || rec == nil {
				return fmt.Errorf("built-in %T is not a %s record", a, c.category)
			}
			m := rec.Meta()
			if custom[m.ID] {
				res.Skipped = append(res.Skipped, m.ID)
				continue
			}
			m.BuiltIn = true
			m.FolderID = ""
			if err := c.store.validator.Validate(rec); err != nil {
				return fmt.Errorf("built-in %s %q: %w", c.category, m.ID, err)
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			m.UpdatedAt = now
			if _, err := c.entity.putTxn(txn, m.ID, (*T)(rec)); err != nil {
				return err
			}
			delete(stale, m.ID)
			res.Written++
		}

		for id := range stale {
			if _, err := c.entity.deleteTxn(txn, id); err != nil {
				return err
			}
			res.Removed++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	if len(res.Skipped) > 0 {
		c.store.logger.Warn("built-in ids shadowed by custom records",
			slog.String("category", string(c.category)),
			slog.Any("ids", res.Skipped))
	}
	c.store.emit(sse.NewCategoryReplacedEvent(c.category, "builtins", res.Written))
	c.reindex(ctx)
	return res, nil
}

func (c *Collection[T, P]) reindex(ctx context.Context) {
	c.store.updateIndex(ctx, func(ctx context.Context, idx AssetIndexer) error {
		all, err := c.All(ctx)
		if err != nil {
			return err
		}
		return idx.ReindexCategory(ctx, c.category, all)
	})
}

// clearFolderTxn unfiles every record in folderID and returns how many
// records changed.
func (c *Collection[T, P]) clearFolderTxn(txn *badger.Txn, folderID string) (int, error) {
	ids, err := c.entity.idsByIndexTxn(txn, "folder", folderID)
	if err != nil {
		return 0, err
	}

	now := c.store.now()
	cleared := 0
	for _, id := range ids {
		t, err := c.entity.getTxn(txn, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return cleared, err
		}
		m := P(t).Meta()
		m.FolderID = ""
		m.UpdatedAt = now
		if _, err := c.entity.putTxn(txn, id, t); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

func toAssets[P domain.Asset](recs []P) []domain.Asset {
	out := make([]domain.Asset, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out
}
