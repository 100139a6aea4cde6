package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cryptforge/forge-studio/internal/cloudsync"
	"github.com/cryptforge/forge-studio/internal/cloudsync/remote"
	"github.com/cryptforge/forge-studio/internal/config"
	"github.com/cryptforge/forge-studio/internal/logger"
)

// RemoteHandle wraps the remote object store client.
type RemoteHandle struct {
	remote.Client
}

// Shutdown implements do.Shutdownable.
func (h *RemoteHandle) Shutdown() error {
	return h.Close()
}

// ProvideRemote connects to the configured cloud backend.
func ProvideRemote(i do.Injector) (*RemoteHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	client, err := remote.Open(ctx, cfg.Cloud, cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}
	log.Info("Cloud backend ready", "backend", client.Name(), "account", cfg.Cloud.AccountID)

	return &RemoteHandle{Client: client}, nil
}

// SyncEngineHandle wraps the sync engine and its SSE bridge.
type SyncEngineHandle struct {
	*cloudsync.Engine
	detach func()
}

// Shutdown implements do.Shutdownable.
func (h *SyncEngineHandle) Shutdown() error {
	h.detach()
	return nil
}

// ProvideSyncEngine provides the cloud sync engine. Status transitions are
// forwarded to SSE clients.
func ProvideSyncEngine(i do.Injector) (*SyncEngineHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	remoteHandle := do.MustInvoke[*RemoteHandle](i)

	engine := cloudsync.NewEngine(storeHandle.Store, remoteHandle.Client, cloudsync.Options{
		Logger:    log.Component("cloudsync"),
		AccountID: cfg.Cloud.AccountID,
		KeyPrefix: cfg.Cloud.KeyPrefix,
	})
	detach := cloudsync.BridgeToSSE(engine, sseHandle.Manager)

	return &SyncEngineHandle{Engine: engine, detach: detach}, nil
}
