// Package di provides dependency injection configuration for the studio server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/cryptforge/forge-studio/internal/compendium"
	"github.com/cryptforge/forge-studio/internal/config"
	"github.com/cryptforge/forge-studio/internal/di/providers"
	"github.com/cryptforge/forge-studio/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Compendium
	do.Provide(injector, providers.ProvideCompendiumIndex)
	do.Provide(injector, providers.ProvideCompendiumService)

	// Built-in defaults
	do.Provide(injector, providers.ProvideSeeder)

	// Cloud sync
	do.Provide(injector, providers.ProvideRemote)
	do.Provide(injector, providers.ProvideSyncEngine)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order. Built-ins are
// seeded before the compendium rebuild so the first index is complete.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CompendiumIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SeederHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*compendium.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SyncEngineHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
