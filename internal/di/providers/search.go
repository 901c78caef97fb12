package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/search"
	"github.com/artdiscover/artdiscover-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve favorites index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideFavoritesStore provides the favorites set, mirrored into the search
// index and announced over SSE.
func ProvideFavoritesStore(i do.Injector) (*favorites.Store, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return favorites.New(storeHandle.Storage, log.Component("favorites"), favorites.Options{
		Index:    indexHandle.SearchIndex,
		Listener: service.NewFavoritesListener(sseHandle.Manager),
	}), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index from storage when it is
// empty but favorites exist. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	favStore := do.MustInvoke[*favorites.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	entries, err := favStore.List(ctx)
	if err != nil || len(entries) == 0 {
		return
	}

	log.Info("Search index is empty but favorites exist, triggering reindex",
		"favorites", len(entries),
	)

	go func() {
		if err := favStore.Reindex(context.Background()); err != nil {
			log.Error("Favorites reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Favorites reindex completed", "documents", count)
	}()
}
