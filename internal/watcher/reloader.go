package watcher

import (
	"context"
	"log/slog"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// Universe is the memoized universe the reloader refreshes.
type Universe interface {
	Invalidate(ctx context.Context) error
	Load(ctx context.Context) ([]domain.UniverseRecord, error)
}

// Reloader drops and reloads the universe whenever the manifest file settles
// after a change. A removed manifest keeps the current universe.
type Reloader struct {
	watcher  *Watcher
	universe Universe
	logger   *slog.Logger
	onReload func(records int)
}

// NewReloader connects w to universe. onReload, when set, runs after every
// successful reload.
func NewReloader(w *Watcher, universe Universe, logger *slog.Logger, onReload func(records int)) *Reloader {
	return &Reloader{watcher: w, universe: universe, logger: logger, onReload: onReload}
}

// Run consumes watcher events until ctx ends or the watcher stops.
func (r *Reloader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-r.watcher.Errors():
			if !ok {
				return
			}
			r.logger.Warn("manifest watcher error", "error", err)
		case event, ok := <-r.watcher.Events():
			if !ok {
				return
			}
			r.handle(ctx, event)
		}
	}
}

func (r *Reloader) handle(ctx context.Context, event Event) {
	if event.Type == EventRemoved {
		r.logger.Warn("manifest file removed, keeping current universe", "path", event.Path)
		return
	}

	r.logger.Info("manifest file changed, reloading universe",
		"path", event.Path,
		"event", event.Type.String(),
		"size", event.Size,
	)

	if err := r.universe.Invalidate(ctx); err != nil {
		r.logger.Error("failed to invalidate universe", "error", err)
		return
	}
	records, err := r.universe.Load(ctx)
	if err != nil {
		r.logger.Warn("universe reload interrupted", "error", err)
		return
	}

	r.logger.Info("universe reloaded", "records", len(records))
	if r.onReload != nil {
		r.onReload(len(records))
	}
}
