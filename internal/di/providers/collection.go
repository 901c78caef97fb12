package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/media/placeholder"
	"github.com/artdiscover/artdiscover-server/internal/metmuseum"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

// CollectionClientHandle wraps the collection API client with shutdown capability.
type CollectionClientHandle struct {
	*metmuseum.Client
}

// Shutdown implements do.Shutdownable.
func (h *CollectionClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCollectionClient provides the rate-limited collection API client.
func ProvideCollectionClient(i do.Injector) (*CollectionClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := metmuseum.New(metmuseum.Options{
		BaseURL:  cfg.Collection.BaseURL,
		Timeout:  cfg.Collection.LookupTimeout,
		RPS:      cfg.Collection.RPS,
		Burst:    cfg.Collection.Burst,
		CacheTTL: cfg.Collection.CacheTTL,
	}, log.Component("metmuseum"))
	if err != nil {
		return nil, err
	}

	log.Info("Collection client ready",
		"base_url", cfg.Collection.BaseURL,
		"rps", cfg.Collection.RPS,
		"burst", cfg.Collection.Burst,
	)

	return &CollectionClientHandle{Client: client}, nil
}

// ProvideUniverse provides the memoized object universe. The manifest is
// fetched on first use; a background warm-up starts it right away.
func ProvideUniverse(i do.Injector) (*universe.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	var source universe.Source = universe.FileSource(cfg.Manifest.Source)
	if cfg.IsRemoteManifest() {
		client := do.MustInvoke[*CollectionClientHandle](i)
		remote, err := client.Manifest(cfg.Manifest.Source)
		if err != nil {
			return nil, err
		}
		source = remote
	}

	u := universe.New(storeHandle.Storage, source, log.Component("universe"))

	go func() {
		records, err := u.Load(context.Background())
		if err != nil {
			log.Warn("Universe warm-up failed", "error", err)
			return
		}
		log.Info("Universe loaded",
			"records", len(records),
			"departments", len(universe.CountByDepartment(records)),
		)
	}()

	return u, nil
}

// ProvideSampler provides the batch sampler over the collection client,
// decorated with BlurHash placeholders when enabled.
func ProvideSampler(i do.Injector) (*feed.Sampler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*CollectionClientHandle](i)

	opts := feed.SamplerOptions{
		AttemptFactor: cfg.Feed.AttemptFactor,
		Permanent:     metmuseum.Permanent,
		Logger:        log.Component("sampler"),
	}
	if cfg.Placeholder.Enabled {
		opts.Decorator = placeholder.New(placeholder.Options{}, log.Component("placeholder"))
		log.Info("BlurHash placeholders enabled")
	}

	return feed.NewSampler(client.Client, opts), nil
}
