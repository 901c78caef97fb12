// Package favorites persists the consent-gated shortlist of saved artworks.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/store"
)

// Change operations.
const (
	OpAdded   = "added"
	OpRemoved = "removed"
	OpCleared = "cleared"
)

// Indexer mirrors the favorites into a search index.
type Indexer interface {
	IndexFavorite(ctx context.Context, entry domain.FavoriteEntry) error
	DeleteFavorite(ctx context.Context, objectID int) error
	Rebuild(ctx context.Context, entries []domain.FavoriteEntry) error
}

// Listener is notified after every persisted change.
type Listener interface {
	FavoritesChanged(c Change)
}

// Change describes one persisted mutation.
type Change struct {
	Op    string               `json:"op"`
	Entry domain.FavoriteEntry `json:"entry"`
	Count int                  `json:"count"`
}

// ToggleResult is the outcome of a mutation.
// Nudge is set when consent is missing and nothing was written.
type ToggleResult struct {
	Nudge bool `json:"nudge"`
	Saved bool `json:"saved"`
	Count int  `json:"count"`
}

// Options configures optional collaborators.
type Options struct {
	Index    Indexer
	Listener Listener
}

// Store is the favorites set over a Storage backend.
type Store struct {
	storage  store.Storage
	index    Indexer
	listener Listener
	logger   *slog.Logger

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// New creates a favorites store.
func New(storage store.Storage, logger *slog.Logger, opts Options) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage:  storage,
		index:    opts.Index,
		listener: opts.Listener,
		logger:   logger,
	}
}

// Consent returns the stored consent flag.
func (s *Store) Consent(ctx context.Context) (domain.Consent, error) {
	raw, ok, err := s.storage.GetItem(ctx, store.KeyConsent)
	if err != nil {
		return domain.ConsentUnset, fmt.Errorf("read consent: %w", err)
	}
	return domain.ParseStoredConsent(string(raw), ok), nil
}

// SetConsent records the user's answer. Revoking consent deletes the saved set.
func (s *Store) SetConsent(ctx context.Context, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SetItem(ctx, store.KeyConsent, []byte(domain.StoredConsent(granted))); err != nil {
		return fmt.Errorf("write consent: %w", err)
	}
	if granted {
		return nil
	}

	if err := s.storage.RemoveItem(ctx, store.KeyFavorites); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	if s.index != nil {
		if err := s.index.Rebuild(ctx, nil); err != nil {
			s.logger.Warn("failed to clear favorites index", "error", err)
		}
	}
	s.notify(Change{Op: OpCleared})
	s.logger.Info("consent revoked, favorites cleared")
	return nil
}

// List returns the saved artworks in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.FavoriteEntry, error) {
	return s.read(ctx)
}

// Contains reports whether an artwork is saved.
func (s *Store) Contains(ctx context.Context, objectID int) (bool, error) {
	entries, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(entries, objectID) >= 0, nil
}

// Toggle saves the artwork, or removes it when it is already saved.
func (s *Store) Toggle(ctx context.Context, entry domain.FavoriteEntry) (ToggleResult, error) {
	return s.mutate(ctx, entry.ObjectID, func(entries []domain.FavoriteEntry) ([]domain.FavoriteEntry, Change) {
		if i := indexOf(entries, entry.ObjectID); i >= 0 {
			removed := entries[i]
			return slices.Delete(entries, i, i+1), Change{Op: OpRemoved, Entry: removed}
		}
		return append(entries, entry), Change{Op: OpAdded, Entry: entry}
	})
}

// Remove deletes a saved artwork. Removing an unsaved id is a no-op.
func (s *Store) Remove(ctx context.Context, objectID int) (ToggleResult, error) {
	return s.mutate(ctx, objectID, func(entries []domain.FavoriteEntry) ([]domain.FavoriteEntry, Change) {
		i := indexOf(entries, objectID)
		if i < 0 {
			return entries, Change{}
		}
		removed := entries[i]
		return slices.Delete(entries, i, i+1), Change{Op: OpRemoved, Entry: removed}
	})
}

// Reindex rebuilds the search index from storage.
func (s *Store) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	entries, err := s.read(ctx)
	if err != nil {
		return err
	}
	return s.index.Rebuild(ctx, entries)
}

type mutation func([]domain.FavoriteEntry) ([]domain.FavoriteEntry, Change)

func (s *Store) mutate(ctx context.Context, objectID int, apply mutation) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	consent, err := s.Consent(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	if !consent.Granted() {
		s.logger.Debug("favorites mutation without consent", "object_id", objectID, "consent", consent.String())
		return ToggleResult{Nudge: true}, nil
	}

	// Re-read so writes from another handle in the same data directory are not lost.
	entries, err := s.read(ctx)
	if err != nil {
		return ToggleResult{}, err
	}

	entries, change := apply(entries)
	result := ToggleResult{Saved: indexOf(entries, objectID) >= 0, Count: len(entries)}
	if change.Op == "" {
		return result, nil
	}

	if err := s.write(ctx, entries); err != nil {
		return ToggleResult{}, err
	}
	change.Count = len(entries)
	s.mirror(ctx, change)
	s.notify(change)
	return result, nil
}

func (s *Store) read(ctx context.Context) ([]domain.FavoriteEntry, error) {
	raw, ok, err := s.storage.GetItem(ctx, store.KeyFavorites)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []domain.FavoriteEntry{}, nil
	}

	var entries []domain.FavoriteEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("stored favorites are malformed, treating as empty", "error", err)
		return []domain.FavoriteEntry{}, nil
	}
	if entries == nil {
		entries = []domain.FavoriteEntry{}
	}
	return entries, nil
}

func (s *Store) write(ctx context.Context, entries []domain.FavoriteEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.storage.SetItem(ctx, store.KeyFavorites, data); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	return nil
}

func (s *Store) mirror(ctx context.Context, c Change) {
	if s.index == nil {
		return
	}
	var err error
	switch c.Op {
	case OpAdded:
		err = s.index.IndexFavorite(ctx, c.Entry)
	case OpRemoved:
		err = s.index.DeleteFavorite(ctx, c.Entry.ObjectID)
	}
	if err != nil {
		s.logger.Warn("failed to update favorites index", "object_id", c.Entry.ObjectID, "error", err)
	}
}

func (s *Store) notify(c Change) {
	if s.listener != nil {
		s.listener.FavoritesChanged(c)
	}
}

func indexOf(entries []domain.FavoriteEntry, objectID int) int {
	return slices.IndexFunc(entries, func(e domain.FavoriteEntry) bool {
		return e.ObjectID == objectID
	})
}
