// Package editor holds per-record editing sessions. A Form keeps a working
// copy apart from the stored record and moves through an explicit state
// machine:
//
//	clean --Edit--> dirty --Save--> saving --ok--> clean
//	                                       --err--> error --Edit--> dirty
//	                                                      --Save--> saving
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
)

// State is a form's lifecycle state.
type State string

// Form states.
const (
	StateClean  State = "clean"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
	StateError  State = "error"
)

// ErrSaving is returned by Edit, Save and Cancel while a save is running.
var ErrSaving = errors.New("editor: save in progress")

// Saver persists a whole record. *store.Collection implements it.
type Saver[T any, P domain.Record[T]] interface {
	Save(ctx context.Context, rec P) error
}

// Form is an editing session over one record.
type Form[T any, P domain.Record[T]] struct {
	saver    Saver[T, P]
	original P
	working  P
	lastErr  error
	state    State
	mu       sync.Mutex
	isNew    bool
}

// Open starts a session on a stored record. Built-in records open
// read-only.
func Open[T any, P domain.Record[T]](saver Saver[T, P], rec P) (*Form[T, P], error) {
	return open(saver, rec, false)
}

// OpenNew starts a session on a record that has not been stored yet. The
// form starts dirty so the first Save writes it.
func OpenNew[T any, P domain.Record[T]](saver Saver[T, P], rec P) (*Form[T, P], error) {
	return open(saver, rec, true)
}

func open[T any, P domain.Record[T]](saver Saver[T, P], rec P, isNew bool) (*Form[T, P], error) {
	if rec == nil {
		return nil, domainerrors.Validation("record is required")
	}
	original, err := Clone(rec)
	if err != nil {
		return nil, err
	}
	working, err := Clone(rec)
	if err != nil {
		return nil, err
	}

	state := StateClean
	if isNew {
		state = StateDirty
	}
	return &Form[T, P]{
		saver:    saver,
		original: original,
		working:  working,
		state:    state,
		isNew:    isNew,
	}, nil
}

// State returns the current state.
func (f *Form[T, P]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error of the last failed save, or nil.
func (f *Form[T, P]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// ReadOnly reports whether the record is built-in.
func (f *Form[T, P]) ReadOnly() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.original.Meta().BuiltIn
}

// IsNew reports whether the record has never been saved through this form.
func (f *Form[T, P]) IsNew() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isNew
}

// Working returns a copy of the working record.
func (f *Form[T, P]) Working() (P, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Clone(f.working)
}

// Original returns a copy of the record as last loaded or saved.
func (f *Form[T, P]) Original() (P, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Clone(f.original)
}

// Edit applies fn to the working copy and marks the form dirty. The id and
// built-in flag cannot be changed through Edit.
func (f *Form[T, P]) Edit(fn func(P)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.original.Meta().BuiltIn {
		return domainerrors.Protectedf("cannot edit built-in %s %q", f.original.Category(), f.original.Meta().ID)
	}
	if f.state == StateSaving {
		return ErrSaving
	}

	id := f.working.Meta().ID
	fn(f.working)
	f.working.Meta().ID = id
	f.working.Meta().BuiltIn = false

	f.state = StateDirty
	return nil
}

// Replace swaps the whole working copy for rec, keeping the record id.
func (f *Form[T, P]) Replace(rec P) error {
	next, err := Clone(rec)
	if err != nil {
		return err
	}
	return f.Edit(func(p P) {
		meta := *p.Meta()
		*p = *next
		p.Meta().CreatedAt = meta.CreatedAt
	})
}

// Save commits the working copy. Saving a clean form is a no-op. On
// failure the form moves to StateError and keeps the working copy.
func (f *Form[T, P]) Save(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case StateClean:
		f.mu.Unlock()
		return nil
	case StateSaving:
		f.mu.Unlock()
		return ErrSaving
	}
	if f.original.Meta().BuiltIn {
		f.mu.Unlock()
		return domainerrors.Protectedf("cannot save built-in %s %q", f.original.Category(), f.original.Meta().ID)
	}

	pending, err := Clone(f.working)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.state = StateSaving
	f.mu.Unlock()

	saveErr := f.saver.Save(ctx, pending)

	f.mu.Lock()
	defer f.mu.Unlock()
	if saveErr != nil {
		f.state = StateError
		f.lastErr = saveErr
		return saveErr
	}

	// pending now carries the stored timestamps and sanitized content.
	working, err := Clone(pending)
	if err != nil {
		f.state = StateError
		f.lastErr = err
		return err
	}
	f.original = pending
	f.working = working
	f.state = StateClean
	f.lastErr = nil
	f.isNew = false
	return nil
}

// Cancel discards the working copy. A new record that was never saved
// keeps its initial values.
func (f *Form[T, P]) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSaving {
		return ErrSaving
	}
	working, err := Clone(f.original)
	if err != nil {
		return err
	}
	f.working = working
	f.lastErr = nil
	if f.isNew {
		f.state = StateDirty
	} else {
		f.state = StateClean
	}
	return nil
}

// Clone deep-copies a record through its JSON form.
func Clone[T any, P domain.Record[T]](rec P) (P, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("editor: clone: %w", err)
	}
	out := P(new(T))
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("editor: clone: %w", err)
	}
	return out, nil
}
