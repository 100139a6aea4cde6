package compendium

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/logger"
)

// Index is an in-memory Bleve index over every asset. It implements
// store.AssetIndexer so the store keeps it current after each write.
//
// Thread safety: all public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Hit is a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Category   domain.Category   `json:"category"`
	Name       string            `json:"name"`
	FolderID   string            `json:"folder_id,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
	Score      float64           `json:"score"`
	BuiltIn    bool              `json:"built_in"`
}

const (
	batchSize       = 500
	defaultHitLimit = 50
)

// NewIndex creates an empty in-memory index.
func NewIndex(log *slog.Logger) (*Index, error) {
	if log == nil {
		log = logger.Discard()
	}

	m, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Index{index: index, logger: log}, nil
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}

// DocumentCount returns the number of indexed assets.
func (x *Index) DocumentCount() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.DocCount()
}

// IndexAsset adds or replaces one asset.
func (x *Index) IndexAsset(_ context.Context, a domain.Asset) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	doc := newDocument(a)
	return x.index.Index(doc.key(), doc.toMap())
}

// RemoveAsset drops one asset. Removing an unknown asset is not an error.
func (x *Index) RemoveAsset(_ context.Context, c domain.Category, id string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.Delete(docID(c, id))
}

// ReindexCategory replaces everything indexed for c with assets.
func (x *Index) ReindexCategory(ctx context.Context, c domain.Category, assets []domain.Asset) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	stale, err := x.categoryKeys(ctx, c)
	if err != nil {
		return err
	}

	batch := x.index.NewBatch()
	for _, key := range stale {
		batch.Delete(key)
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("drop %s: %w", c, err)
	}

	for i := 0; i < len(assets); i += batchSize {
		end := min(i+batchSize, len(assets))

		batch := x.index.NewBatch()
		for _, a := range assets[i:end] {
			doc := newDocument(a)
			if err := batch.Index(doc.key(), doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.key(), err)
			}
		}
		if err := x.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	x.logger.Debug("reindexed category", "category", c, "removed", len(stale), "indexed", len(assets))
	return nil
}

// categoryKeys lists the document keys currently indexed for c. Callers
// hold the lock.
func (x *Index) categoryKeys(ctx context.Context, c domain.Category) ([]string, error) {
	q := bleve.NewTermQuery(string(c))
	q.SetField("category")

	var keys []string
	for offset := 0; ; offset += batchSize {
		req := bleve.NewSearchRequestOptions(q, batchSize, offset, false)
		res, err := x.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c, err)
		}
		for _, hit := range res.Hits {
			keys = append(keys, hit.ID)
		}
		if len(res.Hits) < batchSize {
			return keys, nil
		}
	}
}

// Search runs a free-text query, optionally restricted to categories.
// An empty query matches nothing.
func (x *Index) Search(ctx context.Context, text string, categories []domain.Category, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = defaultHitLimit
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(text, categories), limit, 0, false)
	req.SortBy([]string{"-_score", "name"})
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("name")
	req.Fields = []string{"id", "category", "name", "folder_id", "built_in"}

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["id"].(string); ok {
			hit.ID = v
		}
		if v, ok := h.Fields["category"].(string); ok {
			hit.Category = domain.Category(v)
		}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["folder_id"].(string); ok {
			hit.FolderID = v
		}
		if v, ok := h.Fields["built_in"].(bool); ok {
			hit.BuiltIn = v
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildSearchQuery matches names first, then body text, with fuzzy and
// prefix fallbacks on the name for typos and autocomplete.
func buildSearchQuery(text string, categories []domain.Category) query.Query {
	nameMatch := bleve.NewMatchQuery(text)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)

	textMatch := bleve.NewMatchQuery(text)
	textMatch.SetField("text")

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("name")
	fuzzy.SetBoost(0.8)

	textQueries := []query.Query{nameMatch, textMatch, fuzzy}
	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("name")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	match := bleve.NewDisjunctionQuery(textQueries...)
	if len(categories) == 0 {
		return match
	}

	categoryQueries := make([]query.Query, len(categories))
	for i, c := range categories {
		tq := bleve.NewTermQuery(string(c))
		tq.SetField("category")
		categoryQueries[i] = tq
	}
	return bleve.NewConjunctionQuery(match, bleve.NewDisjunctionQuery(categoryQueries...))
}
