package providers

import (
	"github.com/samber/do/v2"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/service"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

// ProvideSessionService provides the feed session service and starts its
// idle sweeper. The container shuts it down through its Shutdown method.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	u := do.MustInvoke[*universe.Store](i)
	sampler := do.MustInvoke[*feed.Sampler](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewSessionService(u, sampler, sseHandle.Manager, log.Component("sessions"), service.SessionOptions{
		BatchSize:   cfg.Feed.BatchSize,
		IdleTimeout: cfg.Feed.SessionIdleTimeout,
	})
	svc.StartCleanup(0)

	log.Info("Session service started",
		"batch_size", cfg.Feed.BatchSize,
		"idle_timeout", cfg.Feed.SessionIdleTimeout,
	)

	return svc, nil
}

// ProvideFavoritesService provides the favorites and consent service.
func ProvideFavoritesService(i do.Injector) (*service.FavoritesService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	favStore := do.MustInvoke[*favorites.Store](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return service.NewFavoritesService(favStore, indexHandle.SearchIndex, sseHandle.Manager, log.Component("favorites")), nil
}
