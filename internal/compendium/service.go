// Package compendium is the read-only browser over every asset category:
// counts, filtered listings, full-text search, reference resolution and
// help export.
package compendium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/logger"
	"github.com/cryptforge/forge-studio/internal/store"
)

// Service answers compendium queries from the store and the search index.
type Service struct {
	store  *store.Store
	index  *Index
	logger *slog.Logger
}

// NewService creates a compendium service.
func NewService(s *store.Store, index *Index, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: s, index: index, logger: log}
}

// FolderCount is the number of assets filed in one folder.
type FolderCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryOverview summarizes one category.
type CategoryOverview struct {
	Category      domain.Category `json:"category"`
	Label         string          `json:"label"`
	Folders       []FolderCount   `json:"folders"`
	Total         int             `json:"total"`
	BuiltIn       int             `json:"built_in"`
	Custom        int             `json:"custom"`
	Uncategorized int             `json:"uncategorized"`
}

// Overview summarizes every category.
type Overview struct {
	Categories []CategoryOverview `json:"categories"`
	Total      int                `json:"total"`
}

// Query selects assets for Browse.
type Query struct {
	Category       domain.Category
	Text           string
	Folder         domain.FolderFilter
	IncludeBuiltIn bool
}

// ResolvedReference is a foreign key with its target. Target is nil when
// the reference dangles.
type ResolvedReference struct {
	Target domain.Asset `json:"target"`
	domain.Reference
}

// Rebuild reindexes every category from the store.
func (s *Service) Rebuild(ctx context.Context) error {
	total := 0
	for _, coll := range s.store.Collections() {
		assets, err := coll.All(ctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", coll.Category(), err)
		}
		if err := s.index.ReindexCategory(ctx, coll.Category(), assets); err != nil {
			return err
		}
		total += len(assets)
	}
	s.logger.Info("compendium index rebuilt", "assets", total)
	return nil
}

// Overview returns per-category counts.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{Categories: make([]CategoryOverview, 0, len(domain.AllCategories()))}

	for _, coll := range s.store.Collections() {
		c := coll.Category()
		assets, err := coll.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c, err)
		}
		folders, err := s.store.ListFolders(ctx, c)
		if err != nil {
			return nil, err
		}

		perFolder := make(map[string]int, len(folders))
		co := CategoryOverview{Category: c, Label: c.Label(), Total: len(assets)}
		for _, a := range assets {
			m := a.Meta()
			if m.BuiltIn {
				co.BuiltIn++
			} else {
				co.Custom++
			}
			if m.FolderID == "" {
				co.Uncategorized++
			} else {
				perFolder[m.FolderID]++
			}
		}

		co.Folders = make([]FolderCount, 0, len(folders))
		for _, f := range folders {
			co.Folders = append(co.Folders, FolderCount{ID: f.ID, Name: f.Name, Count: perFolder[f.ID]})
		}

		out.Categories = append(out.Categories, co)
		out.Total += co.Total
	}
	return out, nil
}

// Browse lists one category's assets in display order.
func (s *Service) Browse(ctx context.Context, q Query) ([]domain.Asset, error) {
	coll, err := s.collection(q.Category)
	if err != nil {
		return nil, err
	}

	assets, err := coll.Filter(ctx, q.Folder, q.IncludeBuiltIn)
	if err != nil {
		return nil, err
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		total, err := coll.Count(ctx)
		if err != nil {
			return nil, err
		}
		hits, err := s.index.Search(ctx, text, []domain.Category{q.Category}, total+1)
		if err != nil {
			return nil, err
		}
		matched := make(map[string]bool, len(hits))
		for _, h := range hits {
			matched[h.ID] = true
		}
		kept := assets[:0]
		for _, a := range assets {
			if matched[a.Meta().ID] {
				kept = append(kept, a)
			}
		}
		assets = kept
	}

	sortForDisplay(assets)
	if assets == nil {
		assets = []domain.Asset{}
	}
	return assets, nil
}

// Search runs a free-text query across categories. No categories means all.
func (s *Service) Search(ctx context.Context, text string, categories []domain.Category) ([]Hit, error) {
	for _, c := range categories {
		if !c.Valid() {
			return nil, domainerrors.Validationf("unknown category %q", c)
		}
	}
	return s.index.Search(ctx, text, categories, 0)
}

// References resolves the foreign keys of one asset.
func (s *Service) References(ctx context.Context, c domain.Category, id string) ([]ResolvedReference, error) {
	coll, err := s.collection(c)
	if err != nil {
		return nil, err
	}
	a, err := coll.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	refs := a.References()
	out := make([]ResolvedReference, 0, len(refs))
	for _, ref := range refs {
		rr := ResolvedReference{Reference: ref}
		target, err := s.store.Collection(ref.Category)
		if err != nil {
			return nil, err
		}
		found, err := target.Lookup(ctx, ref.ID)
		switch {
		case err == nil:
			rr.Target = found
		case errors.Is(err, domainerrors.ErrNotFound):
			s.logger.Debug("dangling reference", "from", id, "field", ref.Field, "to", ref.ID)
		default:
			return nil, err
		}
		out = append(out, rr)
	}
	return out, nil
}

// ExportHelpMarkdown renders every help section as one Markdown document.
func (s *Service) ExportHelpMarkdown(ctx context.Context) (string, error) {
	sections, err := s.store.Help.GetAll(ctx)
	if err != nil {
		return "", err
	}
	sortHelp(sections)

	var b strings.Builder
	for i, h := range sections {
		body, err := htmltomarkdown.ConvertString(h.Content)
		if err != nil {
			return "", fmt.Errorf("convert help %q: %w", h.ID, err)
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(h.DisplayTitle())
		if body = strings.TrimSpace(body); body != "" {
			b.WriteString("\n\n")
			b.WriteString(body)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *Service) collection(c domain.Category) (store.AnyCollection, error) {
	if !c.Valid() {
		return nil, domainerrors.Validationf("unknown category %q", c)
	}
	return s.store.Collection(c)
}
