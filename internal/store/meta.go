package store

import (
	"context"
	"errors"
	"time"
)

const lastSyncKey = metaPrefix + "last_sync"

type syncMeta struct {
	At time.Time `json:"at"`
}

// LastSync returns the time of the last successful cloud sync. The boolean
// is false when no sync has completed yet.
func (s *Store) LastSync(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	var m syncMeta
	err := s.get([]byte(lastSyncKey), &m)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return m.At, true, nil
}

// SetLastSync records the time of a successful cloud sync.
func (s *Store) SetLastSync(ctx context.Context, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(lastSyncKey), syncMeta{At: at.UTC()})
}
