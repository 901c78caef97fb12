package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/universe"
	"github.com/artdiscover/artdiscover-server/internal/watcher"
)

// ManifestWatcherHandle wraps the manifest file watcher with shutdown capability.
// Watcher is nil when watching is disabled or the manifest is remote.
type ManifestWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ManifestWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideManifestWatcher reloads the universe whenever the local manifest
// file settles after a change.
func ProvideManifestWatcher(i do.Injector) (*ManifestWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Manifest.Watch || cfg.IsRemoteManifest() {
		log.Info("Manifest watcher disabled", "remote", cfg.IsRemoteManifest())
		return &ManifestWatcherHandle{}, nil
	}

	u := do.MustInvoke[*universe.Store](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	w, err := watcher.New(cfg.Manifest.Source, log.Component("watcher"), watcher.Options{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Manifest watcher error", "error", err)
		}
	}()

	reloader := watcher.NewReloader(w, u, log.Component("reloader"), func(records int) {
		log.Info("Universe reloaded from manifest", "records", records, "sse_clients", sseHandle.ClientCount())
	})
	go reloader.Run(ctx)

	log.Info("Manifest watcher started", "path", w.Path())

	return &ManifestWatcherHandle{Watcher: w, cancel: cancel}, nil
}
