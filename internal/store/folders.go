package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/id"
	"github.com/cryptforge/forge-studio/internal/sse"
)

// ListFolders returns the folders of category c sorted by name.
func (s *Store) ListFolders(ctx context.Context, c domain.Category) ([]*domain.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folders []*domain.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		folders, err = s.foldersTxn(txn, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *Store) foldersTxn(txn *badger.Txn, c domain.Category) ([]*domain.Folder, error) {
	ids, err := s.Folders.idsByIndexTxn(txn, "category", string(c))
	if err != nil {
		return nil, err
	}

	folders := make([]*domain.Folder, 0, len(ids))
	for _, fid := range ids {
		f, err := s.Folders.getTxn(txn, fid)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}

	sort.SliceStable(folders, func(i, j int) bool {
		a, b := strings.ToLower(folders[i].Name), strings.ToLower(folders[j].Name)
		if a != b {
			return a < b
		}
		return folders[i].ID < folders[j].ID
	})
	return folders, nil
}

// GetFolder returns the folder with id.
func (s *Store) GetFolder(ctx context.Context, folderID string) (*domain.Folder, error) {
	f, err := s.Folders.Get(ctx, folderID)
	if errors.Is(err, ErrNotFound) {
		return nil, folderNotFound(folderID)
	}
	return f, err
}

// CreateFolder creates a folder named name in category c.
func (s *Store) CreateFolder(ctx context.Context, name string, c domain.Category) (*domain.Folder, error) {
	if !c.Valid() {
		return nil, domainerrors.Validationf("unknown category %q", c)
	}

	folderID, err := id.Folder()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate folder id")
	}

	now := s.now()
	f := &domain.Folder{
		CreatedAt: now,
		UpdatedAt: now,
		ID:        folderID,
		Name:      strings.TrimSpace(name),
		Category:  c,
	}
	if err := s.validator.Validate(f); err != nil {
		return nil, err
	}

	if err := s.Folders.Put(ctx, f.ID, f); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		slog.String("id", f.ID),
		slog.String("category", string(c)),
		slog.String("name", f.Name))
	s.emit(sse.NewFolderCreatedEvent(f))
	return f, nil
}

// RenameFolder renames the folder with id. Renaming a folder that does not
// exist is a no-op.
func (s *Store) RenameFolder(ctx context.Context, folderID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if err := s.validator.Var("name", name, "required,max=80"); err != nil {
		return err
	}

	var renamed *domain.Folder
	err := s.db.Update(func(txn *badger.Txn) error {
		f, err := s.Folders.getTxn(txn, folderID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		f.Name = name
		f.UpdatedAt = s.now()
		if _, err := s.Folders.putTxn(txn, folderID, f); err != nil {
			return err
		}
		renamed = f
		return nil
	})
	if err != nil || renamed == nil {
		return err
	}

	s.emit(sse.NewFolderRenamedEvent(renamed))
	return nil
}

// DeleteFolder removes the folder with id and, in the same transaction,
// clears the folder reference of every record filed in it. It returns the
// number of records that were unfiled. Deleting a missing folder is a no-op.
func (s *Store) DeleteFolder(ctx context.Context, folderID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		deleted *domain.Folder
		cleared int
	)
	err := s.db.Update(func(txn *badger.Txn) error {
		f, err := s.Folders.getTxn(txn, folderID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		coll, err := s.Collection(f.Category)
		if err != nil {
			return err
		}
		cleared, err = coll.clearFolderTxn(txn, folderID)
		if err != nil {
			return err
		}
		if _, err := s.Folders.deleteTxn(txn, folderID); err != nil {
			return err
		}
		deleted = f
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted == nil {
		return 0, nil
	}

	s.logger.Info("folder deleted",
		slog.String("id", folderID),
		slog.String("category", string(deleted.Category)),
		slog.Int("unfiled", cleared))
	s.emit(sse.NewFolderDeletedEvent(deleted, cleared))
	if cleared > 0 {
		coll, _ := s.Collection(deleted.Category)
		s.updateIndex(ctx, func(ctx context.Context, idx AssetIndexer) error {
			all, err := coll.All(ctx)
			if err != nil {
				return err
			}
			return idx.ReindexCategory(ctx, deleted.Category, all)
		})
	}
	return cleared, nil
}
