package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/sse"
	"github.com/artdiscover/artdiscover-server/internal/store"
)

// staticUniverse is a fixed universe.
type staticUniverse []domain.UniverseRecord

func (u staticUniverse) Load(context.Context) ([]domain.UniverseRecord, error) {
	return u, nil
}

// testUniverse has three Asian Art, two Egyptian and one European object.
var testUniverse = staticUniverse{
	{ObjectID: 1, DepartmentID: 6},
	{ObjectID: 2, DepartmentID: 10},
	{ObjectID: 3, DepartmentID: 6},
	{ObjectID: 4, DepartmentID: 11},
	{ObjectID: 5, DepartmentID: 6},
	{ObjectID: 6, DepartmentID: 10},
}

// displayableLookup answers every id with a displayable artwork.
type displayableLookup struct{}

func (displayableLookup) GetObject(ctx context.Context, id int) (*domain.Artwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.Artwork{
		ObjectID:          id,
		PrimaryImage:      fmt.Sprintf("https://images.example.org/%d.jpg", id),
		PrimaryImageSmall: fmt.Sprintf("https://images.example.org/%d-small.jpg", id),
		Title:             fmt.Sprintf("Object %d", id),
		IsPublicDomain:    true,
	}, nil
}

// recordingEmitter captures emitted events and disconnects.
type recordingEmitter struct {
	mu           sync.Mutex
	events       []sse.Event
	disconnected []string
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) DisconnectSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected = append(r.disconnected, sessionID)
}

func (r *recordingEmitter) ofType(t sse.EventType) []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sse.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingEmitter) disconnects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.disconnected...)
}

func newTestSessions(t *testing.T, emitter EventEmitter) *SessionService {
	t.Helper()
	sampler := feed.NewSampler(displayableLookup{}, feed.SamplerOptions{Logger: logger.Discard().Logger})
	svc := NewSessionService(testUniverse, sampler, emitter, logger.Discard().Logger, SessionOptions{})
	t.Cleanup(svc.Shutdown)
	return svc
}

func waitLoaded(t *testing.T, svc *SessionService, sessionID string, n int) feed.Snapshot {
	t.Helper()
	var snap feed.Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = svc.Snapshot(sessionID)
		return err == nil && !snap.LoadingInitial && !snap.LoadingMore && snap.Len >= n
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func newTestFavorites(t *testing.T, emitter EventEmitter, searcher FavoritesSearcher) (*FavoritesService, *favorites.Store) {
	t.Helper()
	fs := favorites.New(store.NewMemory(), logger.Discard().Logger, favorites.Options{
		Listener: NewFavoritesListener(emitter),
	})
	return NewFavoritesService(fs, searcher, emitter, logger.Discard().Logger), fs
}
