package providers

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/sse"
	"github.com/artdiscover/artdiscover-server/internal/store"
	"github.com/artdiscover/artdiscover-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	defer h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the durable key/value storage with shutdown capability.
type StoreHandle struct {
	store.Storage
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured storage backend below the data directory.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		storage store.Storage
		path    string
		err     error
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		path = filepath.Join(cfg.Data.BasePath, "artdiscover.db")
		storage, err = sqlite.Open(path, log.Logger)
	default:
		path = filepath.Join(cfg.Data.BasePath, "db")
		storage, err = store.New(path, log.Logger)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Storage initialized", "driver", cfg.Storage.Driver, "path", path)

	return &StoreHandle{Storage: storage}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
