// Package di provides dependency injection configuration for the ArtDiscover server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/di/providers"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/service"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Collection layer
	do.Provide(injector, providers.ProvideCollectionClient)
	do.Provide(injector, providers.ProvideUniverse)
	do.Provide(injector, providers.ProvideSampler)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideFavoritesStore)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideFavoritesService)

	// Workers
	do.Provide(injector, providers.ProvideManifestWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CollectionClientHandle](injector)
	_ = do.MustInvoke[*universe.Store](injector)
	_ = do.MustInvoke[*feed.Sampler](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*favorites.Store](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.FavoritesService](injector)

	// Workers
	_ = do.MustInvoke[*providers.ManifestWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the favorites index if it was lost
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
