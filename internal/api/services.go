package api

import (
	"context"

	"github.com/artdiscover/artdiscover-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Sessions  *service.SessionService
	Favorites *service.FavoritesService
}

// Probes are the read-only checks reported by the health endpoint.
// Any of them may be nil.
type Probes struct {
	Storage    StorageProbe
	Universe   UniverseProbe
	Search     SearchProbe
	Collection CollectionProbe
}

// StorageProbe reads one key to prove the store is reachable.
type StorageProbe interface {
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
}

// UniverseProbe reports the memoized universe.
type UniverseProbe interface {
	Loaded() bool
	Len() int
}

// SearchProbe reports the favorites index size.
type SearchProbe interface {
	DocumentCount() (uint64, error)
}

// CollectionProbe reports the collection client's lookup memo.
type CollectionProbe interface {
	CachedCount() int
}
