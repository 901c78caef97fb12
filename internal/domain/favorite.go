package domain

// FavoriteEntry is a saved artwork, keyed by ObjectID.
type FavoriteEntry struct {
	ObjectID          int    `json:"objectID"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	Title             string `json:"title"`
	ObjectURL         string `json:"objectURL"`
	ArtistDisplayName string `json:"artistDisplayName"`
}

// Consent is the tri-state storage consent flag.
type Consent int

const (
	// ConsentUnset means the user has not answered the consent prompt.
	ConsentUnset Consent = iota
	// ConsentGranted allows favorites to be persisted.
	ConsentGranted
	// ConsentDenied blocks all favorites persistence.
	ConsentDenied
)

// String returns the API representation of the flag.
func (c Consent) String() string {
	switch c {
	case ConsentGranted:
		return "granted"
	case ConsentDenied:
		return "denied"
	default:
		return "unset"
	}
}

// Granted reports whether persistence is allowed.
func (c Consent) Granted() bool {
	return c == ConsentGranted
}

// ParseStoredConsent decodes the persisted "true"/"false" value.
// Absent or unrecognized values are unset.
func ParseStoredConsent(raw string, present bool) Consent {
	if !present {
		return ConsentUnset
	}
	switch raw {
	case "true":
		return ConsentGranted
	case "false":
		return ConsentDenied
	default:
		return ConsentUnset
	}
}

// StoredConsent encodes the flag for persistence.
func StoredConsent(granted bool) string {
	if granted {
		return "true"
	}
	return "false"
}
