package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

var errUpstream = errors.New("upstream unavailable")

func rec(objectID, departmentID int) domain.UniverseRecord {
	return domain.UniverseRecord{ObjectID: objectID, DepartmentID: departmentID}
}

func displayable(id int) *domain.Artwork {
	return &domain.Artwork{
		ObjectID:          id,
		PrimaryImage:      fmt.Sprintf("https://images.example.org/%d.jpg", id),
		PrimaryImageSmall: fmt.Sprintf("https://images.example.org/%d-small.jpg", id),
		Title:             fmt.Sprintf("Object %d", id),
		IsPublicDomain:    true,
	}
}

// fakeLookup answers from a table. Ids missing from both maps are displayable.
type fakeLookup struct {
	mu      sync.Mutex
	objects map[int]*domain.Artwork
	errs    map[int]error
	calls   atomic.Int32
	seen    []int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{objects: map[int]*domain.Artwork{}, errs: map[int]error{}}
}

func (f *fakeLookup) GetObject(ctx context.Context, id int) (*domain.Artwork, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if art, ok := f.objects[id]; ok {
		cp := *art
		return &cp, nil
	}
	return displayable(id), nil
}

// failingLookup fails every call.
type failingLookup struct {
	err   error
	calls atomic.Int32
}

func (f *failingLookup) GetObject(context.Context, int) (*domain.Artwork, error) {
	f.calls.Add(1)
	return nil, f.err
}

// seqRand replays fixed indexes, wrapping around.
type seqRand struct {
	mu  sync.Mutex
	seq []int
	pos int
}

func (r *seqRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.seq[r.pos%len(r.seq)] % n
	r.pos++
	return v
}

// staticUniverse is a fixed universe.
type staticUniverse []domain.UniverseRecord

func (u staticUniverse) Load(ctx context.Context) ([]domain.UniverseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u, nil
}

// recordingListener captures controller notifications.
type recordingListener struct {
	mu      sync.Mutex
	batches []Batch
	resets  []uint64
}

func (l *recordingListener) BatchAppended(b Batch, _ State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batches = append(l.batches, b)
}

func (l *recordingListener) FeedReset(epoch uint64, _ domain.Selection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets = append(l.resets, epoch)
}

func (l *recordingListener) counts() (batches, resets int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.batches), len(l.resets)
}
