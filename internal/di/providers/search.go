package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cryptforge/forge-studio/internal/compendium"
	"github.com/cryptforge/forge-studio/internal/logger"
)

// CompendiumIndexHandle wraps the search index with shutdown capability.
type CompendiumIndexHandle struct {
	*compendium.Index
}

// Shutdown implements do.Shutdownable.
func (h *CompendiumIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideCompendiumIndex provides the in-memory search index and attaches
// it to the store so every write keeps it current.
func ProvideCompendiumIndex(i do.Injector) (*CompendiumIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := compendium.NewIndex(log.Component("search"))
	if err != nil {
		return nil, err
	}
	storeHandle.SetIndexer(index)

	return &CompendiumIndexHandle{Index: index}, nil
}

// ProvideCompendiumService provides the compendium and fills the index
// from the store.
func ProvideCompendiumService(i do.Injector) (*compendium.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*CompendiumIndexHandle](i)

	svc := compendium.NewService(storeHandle.Store, indexHandle.Index, log.Component("compendium"))
	if err := svc.Rebuild(context.Background()); err != nil {
		return nil, err
	}

	docCount, _ := indexHandle.DocumentCount()
	log.Info("Compendium index built", "documents", docCount)

	return svc, nil
}
