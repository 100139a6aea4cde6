package editor

import (
	"strings"
	"time"

	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/id"
)

// DefaultName is the name given to freshly created records.
const DefaultName = "Untitled"

const copySuffix = " (copy)"

// New returns an unsaved record with a generated id and the type's default
// values.
func New[T any, P domain.Record[T]]() (P, error) {
	rec := P(new(T))
	rec.ApplyDefaults()

	recID, err := id.ForCategory(rec.Category())
	if err != nil {
		return nil, err
	}
	meta := rec.Meta()
	meta.ID = recID
	meta.Name = DefaultName
	return rec, nil
}

// Duplicate clones rec under a new id. The copy is never built-in, its
// name gets a " (copy)" suffix and its timestamps are cleared so the next
// save stamps them fresh.
func Duplicate[T any, P domain.Record[T]](rec P) (P, error) {
	dup, err := Clone(rec)
	if err != nil {
		return nil, err
	}

	recID, err := id.ForCategory(dup.Category())
	if err != nil {
		return nil, err
	}
	meta := dup.Meta()
	meta.ID = recID
	meta.Name = copyName(meta.Name)
	meta.BuiltIn = false
	meta.CreatedAt = time.Time{}
	meta.UpdatedAt = time.Time{}
	return dup, nil
}

// copyName keeps the name within the validator's 120 character limit.
func copyName(name string) string {
	const maxName = 120
	runes := []rune(strings.TrimSpace(name))
	if limit := maxName - len([]rune(copySuffix)); len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + copySuffix
}
