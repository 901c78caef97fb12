// Package domain contains the core value types of the artwork discovery engine.
package domain

const (
	// UnknownArtist is shown when an artwork has no artist display name.
	UnknownArtist = "Unknown Artist"
	// UnknownDate is shown when an artwork has no object date.
	UnknownDate = "Unknown Date"
)

// UniverseRecord is one entry of the object manifest.
// Records are immutable after load and duplicates are tolerated.
type UniverseRecord struct {
	ObjectID     int `json:"objectID"`
	DepartmentID int `json:"departmentId"`
}

// Artwork is the subset of a collection object record the feed uses.
type Artwork struct {
	ObjectID          int    `json:"objectID"`
	PrimaryImage      string `json:"primaryImage"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	Title             string `json:"title"`
	ArtistDisplayName string `json:"artistDisplayName,omitempty"`
	ObjectDate        string `json:"objectDate,omitempty"`
	ObjectURL         string `json:"objectURL"`
	Department        string `json:"department"`
	IsPublicDomain    bool   `json:"isPublicDomain"`

	// Placeholder is an optional BlurHash of PrimaryImageSmall.
	Placeholder string `json:"placeholder,omitempty"`
}

// Eligible reports whether the artwork may enter the feed.
// Only public-domain objects with a primary image are admitted.
func (a *Artwork) Eligible() bool {
	return a != nil && a.PrimaryImage != "" && a.IsPublicDomain
}

// DisplayArtist returns the artist name or the unknown-artist fallback.
func (a *Artwork) DisplayArtist() string {
	if a.ArtistDisplayName == "" {
		return UnknownArtist
	}
	return a.ArtistDisplayName
}

// DisplayDate returns the object date or the unknown-date fallback.
func (a *Artwork) DisplayDate() string {
	if a.ObjectDate == "" {
		return UnknownDate
	}
	return a.ObjectDate
}

// Favorite projects the artwork into the persisted favorite shape.
func (a *Artwork) Favorite() FavoriteEntry {
	return FavoriteEntry{
		ObjectID:          a.ObjectID,
		PrimaryImageSmall: a.PrimaryImageSmall,
		Title:             a.Title,
		ObjectURL:         a.ObjectURL,
		ArtistDisplayName: a.ArtistDisplayName,
	}
}
