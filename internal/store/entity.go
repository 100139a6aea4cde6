package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for any JSON-encoded type stored
// under a key prefix, with optional non-unique secondary indexes.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index defines a secondary index on an entity.
type Index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:   s,
		prefix:  prefix,
		indexes: make([]Index[T], 0),
	}
}

// WithIndex adds a secondary index. keyGen returns the indexed values of a
// record; an empty result leaves the record out of the index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

// Prefix returns the key prefix of the entity.
func (e *Entity[T]) Prefix() string {
	return e.prefix
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Put creates or fully replaces the entity with the given ID.
func (e *Entity[T]) Put(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := e.putTxn(txn, id, entity)
		return err
	})
}

// Delete deletes an entity by ID.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := e.deleteTxn(txn, id)
		return err
	})
}

// List returns an iterator over all entities.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		err := e.store.db.View(func(txn *badger.Txn) error {
			return e.eachTxn(ctx, txn, func(entity *T) bool {
				return yield(entity, nil)
			})
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// ListByIndex returns every entity whose index name contains value.
func (e *Entity[T]) ListByIndex(ctx context.Context, name, value string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		ids, err := e.idsByIndexTxn(txn, name, value)
		if err != nil {
			return err
		}
		for _, id := range ids {
			entity, err := e.getTxn(txn, id)
			if errors.Is(err, ErrNotFound) {
				// Stale index entry; the record is gone.
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored entities without decoding values.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if !e.isIndexKey(it.Item().Key()) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (e *Entity[T]) isIndexKey(key []byte) bool {
	return strings.HasPrefix(string(key[len(e.prefix):]), indexMarker)
}

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

// putTxn upserts entity and keeps its index entries in step. It returns the
// previous version, or nil when the record is new.
func (e *Entity[T]) putTxn(txn *badger.Txn, id string, entity *T) (*T, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}

	old, err := e.getTxn(txn, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if old != nil {
		if err := e.deleteIndexesTxn(txn, id, old); err != nil {
			return nil, err
		}
	}

	if err := txn.Set([]byte(e.prefix+id), data); err != nil {
		return nil, fmt.Errorf("failed to set key: %w", err)
	}

	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Set(indexKey(e.prefix, idx.name, value, id), nil); err != nil {
				return nil, fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}

	return old, nil
}

// deleteTxn removes the record and its index entries. It returns the deleted
// record, or nil when nothing was stored under id.
func (e *Entity[T]) deleteTxn(txn *badger.Txn, id string) (*T, error) {
	old, err := e.getTxn(txn, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := e.deleteIndexesTxn(txn, id, old); err != nil {
		return nil, err
	}
	if err := txn.Delete([]byte(e.prefix + id)); err != nil {
		return nil, fmt.Errorf("failed to delete key: %w", err)
	}
	return old, nil
}

func (e *Entity[T]) deleteIndexesTxn(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Delete(indexKey(e.prefix, idx.name, value, id)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}

// idsByIndexTxn scans the index entries for value and returns record ids.
func (e *Entity[T]) idsByIndexTxn(txn *badger.Txn, name, value string) ([]string, error) {
	prefix := []byte(indexScanPrefix(e.prefix, name, value))

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids, nil
}

// eachTxn decodes every record under the prefix, skipping index keys, until
// fn returns false.
func (e *Entity[T]) eachTxn(ctx context.Context, txn *badger.Txn, fn func(*T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(e.prefix)
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := it.Item()
		if e.isIndexKey(item.Key()) {
			continue
		}

		var entity T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", item.Key(), err)
		}

		if !fn(&entity) {
			return nil
		}
	}
	return nil
}
