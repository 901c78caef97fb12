// Package search provides full-text search over saved favorites using Bleve.
package search

import (
	"strconv"
	"time"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// FavoriteDocument is the indexed form of a saved artwork.
//
// The whole entry is stored so a hit can be rendered without a storage read.
type FavoriteDocument struct {
	ID        string `json:"id"`
	ObjectID  int    `json:"object_id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Image     string `json:"image"`
	URL       string `json:"url"`
	IndexedAt int64  `json:"indexed_at"` // Unix millis
}

// DocumentID returns the index id of an object.
func DocumentID(objectID int) string {
	return strconv.Itoa(objectID)
}

// NewFavoriteDocument builds the document for entry.
func NewFavoriteDocument(entry domain.FavoriteEntry, now time.Time) *FavoriteDocument {
	return &FavoriteDocument{
		ID:        DocumentID(entry.ObjectID),
		ObjectID:  entry.ObjectID,
		Title:     entry.Title,
		Artist:    entry.ArtistDisplayName,
		Image:     entry.PrimaryImageSmall,
		URL:       entry.ObjectURL,
		IndexedAt: now.UnixMilli(),
	}
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *FavoriteDocument) ToMap() map[string]any {
	return map[string]any{
		"id":         d.ID,
		"object_id":  d.ObjectID,
		"title":      d.Title,
		"artist":     d.Artist,
		"image":      d.Image,
		"url":        d.URL,
		"indexed_at": d.IndexedAt,
	}
}

// Entry converts the document back into a favorite.
func (d *FavoriteDocument) Entry() domain.FavoriteEntry {
	return domain.FavoriteEntry{
		ObjectID:          d.ObjectID,
		PrimaryImageSmall: d.Image,
		Title:             d.Title,
		ObjectURL:         d.URL,
		ArtistDisplayName: d.Artist,
	}
}
