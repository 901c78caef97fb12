package store

import (
	"context"
	"errors"
)

// Keys of the durable items the server keeps.
const (
	// KeyUniverse holds the manifest bytes exactly as fetched.
	KeyUniverse = "allWantedObjects"
	// KeyFavorites holds the JSON array of saved artworks.
	KeyFavorites = "savedArtworks"
	// KeyConsent holds "true" or "false".
	KeyConsent = "userConsent"
)

// ErrClosed is returned by operations on a closed storage.
var ErrClosed = errors.New("storage closed")

// Storage is a flat string-keyed byte store.
//
// GetItem reports a missing key as (nil, false, nil). RemoveItem on a missing
// key is not an error. Values are returned as copies the caller may keep.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}
