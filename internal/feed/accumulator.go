package feed

import (
	"slices"
	"sync"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// State is a copy of the accumulator's bookkeeping without the items.
// LastOutcome is the outcome of the latest applied batch, empty until one lands.
type State struct {
	Epoch          uint64
	Len            int
	Batches        int
	LastBatchStart int
	LastBatchLen   int
	LoadingInitial bool
	LoadingMore    bool
	Exhausted      bool
	LastOutcome    Outcome
}

// Accumulator is the ordered, append-only feed of one epoch.
// It is safe for concurrent use.
type Accumulator struct {
	mu             sync.RWMutex
	items          []domain.Artwork
	epoch          uint64
	batches        int
	lastBatchStart int
	lastBatchLen   int
	loading        int
	exhausted      bool
	lastOutcome    Outcome
}

// NewAccumulator returns an empty feed at epoch 1.
func NewAccumulator() *Accumulator {
	return &Accumulator{epoch: 1}
}

// Epoch returns the current epoch.
func (a *Accumulator) Epoch() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.epoch
}

// Reset empties the feed and starts a new epoch, which it returns.
// Loads begun under the old epoch no longer count as loading.
func (a *Accumulator) Reset() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = nil
	a.epoch++
	a.batches = 0
	a.lastBatchStart = 0
	a.lastBatchLen = 0
	a.loading = 0
	a.exhausted = false
	a.lastOutcome = ""
	return a.epoch
}

// BeginLoad marks a fetch for epoch as running. It reports false, and
// changes nothing, when epoch is stale.
func (a *Accumulator) BeginLoad(epoch uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if epoch != a.epoch {
		return false
	}
	a.loading++
	return true
}

// EndLoad clears a BeginLoad of the same epoch.
func (a *Accumulator) EndLoad(epoch uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if epoch == a.epoch && a.loading > 0 {
		a.loading--
	}
}

// AppendBatch appends the batch items in order, all at once, if the batch
// belongs to the current epoch. It reports whether the batch was applied.
// Canceled batches are never applied. An exhausted batch also marks the feed
// exhausted. Empty batches are applied too, so their outcome is recorded.
func (a *Accumulator) AppendBatch(b Batch) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b.Epoch != a.epoch || b.Outcome == OutcomeCanceled {
		return false
	}

	if len(b.Items) > 0 {
		a.lastBatchStart = len(a.items)
		a.lastBatchLen = len(b.Items)
		a.items = append(a.items, b.Items...)
		a.batches++
	}
	a.lastOutcome = b.Outcome
	if b.Outcome == OutcomeExhausted {
		a.exhausted = true
	}
	return true
}

// Items returns a copy of the feed.
func (a *Accumulator) Items() []domain.Artwork {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items)
}

// LastBatch returns a copy of the most recent non-empty batch's items.
func (a *Accumulator) LastBatch() []domain.Artwork {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items[a.lastBatchStart : a.lastBatchStart+a.lastBatchLen])
}

// IsLoadingInitial reports a running fetch with nothing shown yet.
func (a *Accumulator) IsLoadingInitial() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading > 0 && len(a.items) == 0
}

// IsLoadingMore reports a running fetch behind a non-empty feed.
func (a *Accumulator) IsLoadingMore() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading > 0 && len(a.items) > 0
}

// Exhausted reports whether the current epoch has run out of artworks.
func (a *Accumulator) Exhausted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.exhausted
}

// State returns the bookkeeping fields in one consistent read.
func (a *Accumulator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stateLocked()
}

func (a *Accumulator) stateLocked() State {
	return State{
		Epoch:          a.epoch,
		Len:            len(a.items),
		Batches:        a.batches,
		LastBatchStart: a.lastBatchStart,
		LastBatchLen:   a.lastBatchLen,
		LoadingInitial: a.loading > 0 && len(a.items) == 0,
		LoadingMore:    a.loading > 0 && len(a.items) > 0,
		Exhausted:      a.exhausted,
		LastOutcome:    a.lastOutcome,
	}
}

// View returns the items and the state from the same instant.
func (a *Accumulator) View() ([]domain.Artwork, State) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items), a.stateLocked()
}
