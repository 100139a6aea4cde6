// Package builtin loads the system-provided default assets and seeds them
// into the store as read-only records.
package builtin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/logger"
	"github.com/cryptforge/forge-studio/internal/store"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Loader reads built-in definitions, one YAML file per category named
// <category>.yaml. Files in the override directory win over the embedded
// copies.
type Loader struct {
	overrideDir string
}

// NewLoader creates a loader. overrideDir may be empty.
func NewLoader(overrideDir string) *Loader {
	return &Loader{overrideDir: overrideDir}
}

// OverrideDir returns the disk override directory, or "".
func (l *Loader) OverrideDir() string {
	return l.overrideDir
}

// FileName returns the definitions file for category c.
func FileName(c domain.Category) string {
	return string(c) + ".yaml"
}

// CategoryForFile maps a definitions file path back to its category.
func CategoryForFile(path string) (domain.Category, bool) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	if ext != ".yaml" && ext != ".yml" {
		return "", false
	}
	c, err := domain.ParseCategory(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return "", false
	}
	return c, true
}

// Read returns the raw definitions for category c. A category without a
// file has no built-ins.
func (l *Loader) Read(c domain.Category) ([]byte, error) {
	name := FileName(c)
	if l.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(l.overrideDir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("builtin: read %s: %w", name, err)
		}
	}

	data, err := defaultsFS.ReadFile("defaults/" + name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("builtin: read embedded %s: %w", name, err)
	}
	return data, nil
}

// Load reads and decodes the built-ins of category c.
func (l *Loader) Load(c domain.Category) ([]domain.Asset, error) {
	data, err := l.Read(c)
	if err != nil {
		return nil, err
	}
	return Decode(c, data)
}

// Decode parses a YAML list of records of category c. Field names are the
// records' JSON names.
func Decode(c domain.Category, data []byte) ([]domain.Asset, error) {
	var raw []any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("builtin: unmarshal %s: %w", FileName(c), err)
	}

	out := make([]domain.Asset, 0, len(raw))
	for i, item := range raw {
		// Round-trip through JSON so the json tags, embedded meta included,
		// drive field mapping.
		js, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("builtin: %s entry %d: %w", FileName(c), i, err)
		}
		a, err := domain.NewAsset(c)
		if err != nil {
			return nil, err
		}
		a.ApplyDefaults()
		if err := json.Unmarshal(js, a); err != nil {
			return nil, fmt.Errorf("builtin: %s entry %d: %w", FileName(c), i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Seeder installs built-ins into the store.
type Seeder struct {
	store  *store.Store
	loader *Loader
	logger *slog.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(s *store.Store, loader *Loader, log *slog.Logger) *Seeder {
	if log == nil {
		log = logger.Discard()
	}
	return &Seeder{store: s, loader: loader, logger: log}
}

// SeedAll seeds every category. It stops at the first category whose
// definitions cannot be loaded or stored.
func (s *Seeder) SeedAll(ctx context.Context) (map[domain.Category]store.SeedResult, error) {
	results := make(map[domain.Category]store.SeedResult, len(domain.AllCategories()))
	for _, c := range domain.AllCategories() {
		res, err := s.Seed(ctx, c)
		if err != nil {
			return results, err
		}
		results[c] = res
	}
	return results, nil
}

// Seed replaces the built-in set of category c with the loaded definitions.
func (s *Seeder) Seed(ctx context.Context, c domain.Category) (store.SeedResult, error) {
	assets, err := s.loader.Load(c)
	if err != nil {
		return store.SeedResult{}, err
	}
	coll, err := s.store.Collection(c)
	if err != nil {
		return store.SeedResult{}, err
	}
	res, err := coll.SeedBuiltIns(ctx, assets)
	if err != nil {
		return store.SeedResult{}, fmt.Errorf("builtin: seed %s: %w", c, err)
	}

	s.logger.Info("built-ins seeded",
		slog.String("category", string(c)),
		slog.Int("written", res.Written),
		slog.Int("removed", res.Removed))
	return res, nil
}
