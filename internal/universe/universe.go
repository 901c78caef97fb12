// Package universe holds the set of candidate objects the feed samples from.
//
// The universe is read from a manifest once per cache lifetime. The manifest
// bytes are mirrored verbatim into durable storage so later process starts
// skip the download.
package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/store"
)

// Source produces the raw manifest document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads the manifest from a local file.
type FileSource string

// Fetch reads the whole file.
func (f FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(string(f)) //#nosec G304 -- manifest path comes from config
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}

func (f FileSource) String() string { return string(f) }

// Store is the memoized object universe.
type Store struct {
	storage store.Storage
	source  Source
	logger  *slog.Logger

	mu         sync.RWMutex
	records    []domain.UniverseRecord
	loaded     bool
	generation uint64

	flight singleflight.Group
}

// New creates a universe store backed by storage and source.
func New(storage store.Storage, source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, source: source, logger: logger}
}

// Load returns the universe, loading it on first use.
//
// The returned slice is shared and must not be modified. Load never fails
// because of a missing or broken manifest: it logs and returns an empty
// universe, and a later Load tries again. Only a canceled ctx is an error.
func (s *Store) Load(ctx context.Context) ([]domain.UniverseRecord, error) {
	if records, ok := s.current(); ok {
		return records, nil
	}

	ch := s.flight.DoChan("load", func() (any, error) {
		return s.load(context.WithoutCancel(ctx)), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val.([]domain.UniverseRecord), nil
	}
}

// Loaded reports whether a universe is memoized.
func (s *Store) Loaded() bool {
	_, ok := s.current()
	return ok
}

// Len returns the memoized universe size, 0 when not loaded.
func (s *Store) Len() int {
	records, _ := s.current()
	return len(records)
}

// Invalidate ends the cache lifetime: the memoized universe and the stored
// manifest copy are dropped, so the next Load fetches the manifest again.
func (s *Store) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.loaded = false
	s.generation++
	s.mu.Unlock()

	s.flight.Forget("load")

	if err := s.storage.RemoveItem(ctx, store.KeyUniverse); err != nil {
		return fmt.Errorf("drop cached manifest: %w", err)
	}
	s.logger.Info("universe invalidated")
	return nil
}

func (s *Store) current() ([]domain.UniverseRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.loaded
}

func (s *Store) load(ctx context.Context) []domain.UniverseRecord {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	if records, ok := s.fromCache(ctx); ok {
		s.install(generation, records)
		return records
	}

	body, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("manifest unavailable, universe is empty", "source", describe(s.source), "error", err)
		return []domain.UniverseRecord{}
	}

	records, err := Parse(body)
	if err != nil {
		s.logger.Error("manifest is malformed, universe is empty", "source", describe(s.source), "error", err)
		return []domain.UniverseRecord{}
	}

	if err := s.storage.SetItem(ctx, store.KeyUniverse, body); err != nil {
		s.logger.Warn("failed to cache manifest", "error", err)
	}

	s.install(generation, records)
	s.logger.Info("universe loaded from manifest", "source", describe(s.source), "records", len(records))
	return records
}

func (s *Store) fromCache(ctx context.Context) ([]domain.UniverseRecord, bool) {
	raw, ok, err := s.storage.GetItem(ctx, store.KeyUniverse)
	if err != nil {
		s.logger.Warn("manifest cache unreadable", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	records, err := Parse(raw)
	if err != nil {
		s.logger.Warn("manifest cache corrupt, discarding", "error", err)
		if err := s.storage.RemoveItem(ctx, store.KeyUniverse); err != nil {
			s.logger.Warn("failed to drop corrupt manifest cache", "error", err)
		}
		return nil, false
	}

	s.logger.Info("universe loaded from cache", "records", len(records))
	return records, true
}

// install memoizes records unless Invalidate ran since the load started.
func (s *Store) install(generation uint64, records []domain.UniverseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return
	}
	s.records = records
	s.loaded = true
}

// Parse decodes a manifest document. Records without a positive object id
// are dropped; duplicates are kept.
func Parse(data []byte) ([]domain.UniverseRecord, error) {
	var raw []domain.UniverseRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	records := raw[:0]
	for _, r := range raw {
		if r.ObjectID > 0 {
			records = append(records, r)
		}
	}
	if records == nil {
		records = []domain.UniverseRecord{}
	}
	return records, nil
}

// CountByDepartment tallies records per department id.
func CountByDepartment(records []domain.UniverseRecord) map[int]int {
	counts := make(map[int]int)
	for _, r := range records {
		counts[r.DepartmentID]++
	}
	return counts
}

func describe(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
