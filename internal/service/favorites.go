package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	domainerrors "github.com/artdiscover/artdiscover-server/internal/errors"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
	"github.com/artdiscover/artdiscover-server/internal/search"
	"github.com/artdiscover/artdiscover-server/internal/sse"
)

// FavoritesSearcher runs full-text queries over saved favorites.
type FavoritesSearcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// FavoritesService handles the favorites shortlist and consent.
type FavoritesService struct {
	store    *favorites.Store
	searcher FavoritesSearcher
	events   EventEmitter
	logger   *slog.Logger
}

// NewFavoritesService creates a favorites service. searcher may be nil, in
// which case queries filter the stored list by substring.
func NewFavoritesService(store *favorites.Store, searcher FavoritesSearcher, events EventEmitter, logger *slog.Logger) *FavoritesService {
	if events == nil {
		events = NoopEmitter{}
	}
	return &FavoritesService{
		store:    store,
		searcher: searcher,
		events:   events,
		logger:   logger,
	}
}

// List returns saved artworks. A non-empty query matches title and artist.
func (s *FavoritesService) List(ctx context.Context, query string) ([]domain.FavoriteEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		entries, err := s.store.List(ctx)
		if err != nil {
			return nil, domainerrors.Internal("failed to read favorites").WithCause(err)
		}
		return entries, nil
	}

	if s.searcher == nil {
		return s.filter(ctx, query)
	}

	params := search.DefaultSearchParams()
	params.Query = query
	params.Highlight = false
	result, err := s.searcher.Search(ctx, params)
	if err != nil {
		s.logger.Warn("favorites search failed, falling back to list filter", "error", err)
		return s.filter(ctx, query)
	}

	entries := make([]domain.FavoriteEntry, 0, len(result.Hits))
	for _, hit := range result.Hits {
		entries = append(entries, hit.Entry)
	}
	return entries, nil
}

func (s *FavoritesService) filter(ctx context.Context, query string) ([]domain.FavoriteEntry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, domainerrors.Internal("failed to read favorites").WithCause(err)
	}
	q := strings.ToLower(query)
	out := make([]domain.FavoriteEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.ArtistDisplayName), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Toggle saves or unsaves an artwork. Without consent nothing is written and
// sessionID, when set, receives a favorites.nudge event.
func (s *FavoritesService) Toggle(ctx context.Context, sessionID string, entry domain.FavoriteEntry) (favorites.ToggleResult, error) {
	if entry.ObjectID <= 0 {
		return favorites.ToggleResult{}, domainerrors.Validationf("invalid object id %d", entry.ObjectID)
	}
	res, err := s.store.Toggle(ctx, entry)
	if err != nil {
		return res, domainerrors.Internal("failed to update favorites").WithCause(err)
	}
	s.nudge(ctx, sessionID, entry.ObjectID, res)
	return res, nil
}

// Remove unsaves an artwork.
func (s *FavoritesService) Remove(ctx context.Context, sessionID string, objectID int) (favorites.ToggleResult, error) {
	res, err := s.store.Remove(ctx, objectID)
	if err != nil {
		return res, domainerrors.Internal("failed to update favorites").WithCause(err)
	}
	s.nudge(ctx, sessionID, objectID, res)
	return res, nil
}

// Consent returns the stored consent flag.
func (s *FavoritesService) Consent(ctx context.Context) (domain.Consent, error) {
	c, err := s.store.Consent(ctx)
	if err != nil {
		return c, domainerrors.Internal("failed to read consent").WithCause(err)
	}
	return c, nil
}

// SetConsent records the consent answer.
func (s *FavoritesService) SetConsent(ctx context.Context, granted bool) (domain.Consent, error) {
	if err := s.store.SetConsent(ctx, granted); err != nil {
		return domain.ConsentUnset, domainerrors.Internal("failed to write consent").WithCause(err)
	}
	return s.Consent(ctx)
}

func (s *FavoritesService) nudge(ctx context.Context, sessionID string, objectID int, res favorites.ToggleResult) {
	if !res.Nudge || sessionID == "" {
		return
	}
	consent, err := s.store.Consent(ctx)
	if err != nil {
		consent = domain.ConsentUnset
	}
	s.events.Emit(sse.NewFavoritesNudgeEvent(sessionID, objectID, consent))
}
