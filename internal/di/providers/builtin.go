package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cryptforge/forge-studio/internal/builtin"
	"github.com/cryptforge/forge-studio/internal/config"
	"github.com/cryptforge/forge-studio/internal/logger"
)

// SeederHandle wraps the built-in seeder and stops its override watcher.
type SeederHandle struct {
	*builtin.Seeder
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SeederHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideSeeder installs the built-in defaults. With an override directory
// and watching enabled, edits to its files reseed the matching category.
func ProvideSeeder(i do.Injector) (*SeederHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	// The index must be attached before seeding so built-ins are searchable.
	_ = do.MustInvoke[*CompendiumIndexHandle](i)

	seeder := builtin.NewSeeder(storeHandle.Store, builtin.NewLoader(cfg.Builtins.Path), log.Component("builtin"))

	ctx, cancel := context.WithCancel(context.Background())
	results, err := seeder.SeedAll(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	written := 0
	for _, res := range results {
		written += res.Written
	}
	log.Info("Built-in defaults seeded", "records", written, "override_dir", cfg.Builtins.Path)

	if cfg.Builtins.Watch {
		if err := seeder.WatchAndReseed(ctx); err != nil {
			log.Warn("Built-in override watcher unavailable", "error", err)
		}
	}

	return &SeederHandle{Seeder: seeder, cancel: cancel}, nil
}
