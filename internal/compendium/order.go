package compendium

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cryptforge/forge-studio/internal/domain"
)

// newCollator returns an English, case-insensitive collator. Collators are
// not safe for concurrent use, so each sort builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase, collate.Loose)
}

// sortForDisplay orders assets built-ins first, then by name, then by id.
func sortForDisplay(assets []domain.Asset) {
	col := newCollator()
	slices.SortStableFunc(assets, func(a, b domain.Asset) int {
		am, bm := a.Meta(), b.Meta()
		if am.BuiltIn != bm.BuiltIn {
			if am.BuiltIn {
				return -1
			}
			return 1
		}
		if c := col.CompareString(am.Name, bm.Name); c != 0 {
			return c
		}
		return strings.Compare(am.ID, bm.ID)
	})
}

// sortHelp orders help sections by sort order, then title.
func sortHelp(sections []*domain.HelpSection) {
	col := newCollator()
	slices.SortStableFunc(sections, func(a, b *domain.HelpSection) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return col.CompareString(a.DisplayTitle(), b.DisplayTitle())
	})
}
