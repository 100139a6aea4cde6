package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cryptforge/forge-studio/internal/config"
	"github.com/cryptforge/forge-studio/internal/logger"
	"github.com/cryptforge/forge-studio/internal/sanitize"
	"github.com/cryptforge/forge-studio/internal/sse"
	"github.com/cryptforge/forge-studio/internal/store"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the asset store. Help content is sanitized on
// every save.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	dbPath := cfg.Storage.DBPath()
	db, err := store.New(dbPath, log.Component("store"), sseHandle.Manager)
	if err != nil {
		return nil, err
	}
	db.SetSanitizer(sanitize.NewHTMLSanitizer().Func())

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
