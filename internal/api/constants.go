package api

import "time"

// API limits and constants.
const (
	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 64 << 10

	// maxQueryLength bounds the favorites search query.
	maxQueryLength = 200

	// loadMoreTimeout bounds a synchronous batch fetch.
	loadMoreTimeout = 2 * time.Minute
)

// Cache-Control header values.
const (
	CacheOneDay  = "public, max-age=86400"
	CacheNoStore = "no-store"
)
