package metmuseum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// rawObject is the part of an object record the feed reads.
// Every field is optional upstream.
type rawObject struct {
	ObjectID          int    `json:"objectID"`
	IsPublicDomain    bool   `json:"isPublicDomain"`
	PrimaryImage      string `json:"primaryImage"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	Department        string `json:"department"`
	Title             string `json:"title"`
	ArtistDisplayName string `json:"artistDisplayName"`
	ObjectDate        string `json:"objectDate"`
	ObjectURL         string `json:"objectURL"`
}

// cachedMiss is memoized for objects the API reported as missing.
type cachedMiss struct{}

// GetObject looks up one object by id.
//
// Results are memoized for the cache lifetime, including "not found" answers.
// Concurrent calls for the same id share one request. The request itself is
// bounded by the client timeout even when ctx has no deadline.
func (c *Client) GetObject(ctx context.Context, objectID int) (*domain.Artwork, error) {
	if objectID <= 0 {
		return nil, wrapError("getObject", objectID, ErrInvalidID)
	}

	key := strconv.Itoa(objectID)
	if art, missing, ok := c.cached(key); ok {
		c.logger.Debug("object lookup cache hit", "object_id", objectID)
		if missing {
			return nil, wrapError("getObject", objectID, ErrNotFound)
		}
		return art, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		// The shared request must outlive any single caller's cancellation.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetchObject(fetchCtx, objectID)
	})

	select {
	case <-ctx.Done():
		return nil, wrapError("getObject", objectID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, wrapError("getObject", objectID, res.Err)
		}
		art := *res.Val.(*domain.Artwork)
		return &art, nil
	}
}

func (c *Client) fetchObject(ctx context.Context, objectID int) (*domain.Artwork, error) {
	key := strconv.Itoa(objectID)

	c.logger.Debug("object lookup", "object_id", objectID)
	body, err := c.doRequest(ctx, c.endpoint("objects", key), maxObjectBody)
	if err != nil {
		if errors.Is(err, ErrNotFound) && c.cache != nil {
			c.cache.SetDefault(key, cachedMiss{})
		}
		return nil, err
	}

	art, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	if art.ObjectID == 0 {
		art.ObjectID = objectID
	}

	if c.cache != nil {
		c.cache.SetDefault(key, art)
	}
	return art, nil
}

// cached returns a copy of the memoized artwork, or missing=true for a
// memoized "not found".
func (c *Client) cached(key string) (art *domain.Artwork, missing, ok bool) {
	if c.cache == nil {
		return nil, false, false
	}
	v, found := c.cache.Get(key)
	if !found {
		return nil, false, false
	}
	switch v := v.(type) {
	case *domain.Artwork:
		cp := *v
		return &cp, false, true
	case cachedMiss:
		return nil, true, true
	default:
		return nil, false, false
	}
}

// HasPrimaryImage reports whether an object has a full-size image. A missing
// object has none.
func (c *Client) HasPrimaryImage(ctx context.Context, objectID int) (bool, error) {
	art, err := c.GetObject(ctx, objectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return art.PrimaryImage != "", nil
}

// CachedCount returns the number of memoized lookups.
func (c *Client) CachedCount() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}

func parseObject(body []byte) (*domain.Artwork, error) {
	var raw rawObject
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &domain.Artwork{
		ObjectID:          raw.ObjectID,
		PrimaryImage:      raw.PrimaryImage,
		PrimaryImageSmall: raw.PrimaryImageSmall,
		Title:             cleanText(raw.Title),
		ArtistDisplayName: cleanText(raw.ArtistDisplayName),
		ObjectDate:        cleanText(raw.ObjectDate),
		ObjectURL:         raw.ObjectURL,
		Department:        raw.Department,
		IsPublicDomain:    raw.IsPublicDomain,
	}, nil
}
