package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// Controller errors.
var (
	ErrBusy          = errors.New("feed: a batch fetch is already in flight")
	ErrAlreadyLoaded = errors.New("feed: initial batch already loaded")
	ErrClosed        = errors.New("feed: controller closed")
)

// UniverseLoader supplies the current universe.
type UniverseLoader interface {
	Load(ctx context.Context) ([]domain.UniverseRecord, error)
}

// BatchFetcher produces one batch from an eligible id list.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, eligible []int, target int) Batch
}

// Listener observes feed changes. It is called with the controller lock held,
// so it must not block or call back into the controller.
type Listener interface {
	BatchAppended(b Batch, st State)
	FeedReset(epoch uint64, sel domain.Selection)
}

type nopListener struct{}

func (nopListener) BatchAppended(Batch, State)          {}
func (nopListener) FeedReset(uint64, domain.Selection) {}

// Options configures a Controller. Zero values take defaults.
type Options struct {
	BatchSize int
	Selection domain.Selection
	Listener  Listener
	Logger    *slog.Logger
}

// Snapshot is a consistent copy of the application state.
type Snapshot struct {
	Items     []domain.Artwork
	Selection domain.Selection
	State
}

// Controller owns one feed. All state changes go through its commands:
// SelectDepartment, LoadInitial, LoadMore, Reset, Scroll and ScrollTo.
type Controller struct {
	universe  UniverseLoader
	fetcher   BatchFetcher
	acc       *Accumulator
	sentinel  Sentinel
	batchSize int
	listener  Listener
	logger    *slog.Logger

	mu          sync.Mutex
	selection   domain.Selection
	cancelFetch context.CancelFunc
	closed      bool

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// fetch is one acquired batch fetch.
type fetch struct {
	ctx     context.Context
	cancel  context.CancelFunc
	epoch   uint64
	sel     domain.Selection
	initial bool
}

// initialRetries is how many extra batches an initial load fetches when the
// attempt budget ran out before anything was accepted.
const initialRetries = 2

// NewController creates an empty feed over universe and fetcher.
func NewController(universe UniverseLoader, fetcher BatchFetcher, opts Options) *Controller {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Listener == nil {
		opts.Listener = nopListener{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		universe:  universe,
		fetcher:   fetcher,
		acc:       NewAccumulator(),
		batchSize: opts.BatchSize,
		listener:  opts.Listener,
		logger:    opts.Logger,
		selection: opts.Selection,
		ctx:       ctx,
		stop:      stop,
	}
}

// Snapshot returns the feed, selection and loading state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, st := c.acc.View()
	return Snapshot{Items: items, Selection: c.selection, State: st}
}

// Selection returns the current department selection.
func (c *Controller) Selection() domain.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// LoadInitial fetches the first batch of the current epoch and waits for it.
// The returned flag reports whether the batch was appended.
func (c *Controller) LoadInitial(ctx context.Context) (Batch, bool, error) {
	c.mu.Lock()
	if c.acc.State().Len > 0 {
		c.mu.Unlock()
		return Batch{}, false, ErrAlreadyLoaded
	}
	f, err := c.acquireLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return Batch{}, false, err
	}

	b, applied := c.run(f)
	return b, applied, nil
}

// LoadMore fetches the next batch and waits for it.
func (c *Controller) LoadMore(ctx context.Context) (Batch, bool, error) {
	c.mu.Lock()
	f, err := c.acquireLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return Batch{}, false, err
	}

	b, applied := c.run(f)
	return b, applied, nil
}

// Start launches the initial load in the background. It reports false when
// the feed already has items, a fetch is already running or the controller
// is closed.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.acc.State().Len > 0 {
		return false
	}
	return c.spawnLocked()
}

// SelectDepartment applies a department button press: the selection is
// replaced, the feed reset and a new initial load started. It returns the
// new epoch.
func (c *Controller) SelectDepartment(departmentID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = c.selection.Choose(departmentID)
	return c.resetLocked()
}

// Reset empties the feed under the same selection and starts over.
func (c *Controller) Reset() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked()
}

// Scroll feeds a geometry signal to the sentinel and starts a batch when one
// is due. It reports whether a batch was started.
func (c *Controller) Scroll(vp Viewport) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sentinel.ShouldFetch(c.acc.State(), vp) {
		return false
	}
	return c.spawnLocked()
}

// ScrollTo feeds a progress signal to the sentinel and starts a batch when
// one is due. It reports whether a batch was started.
func (c *Controller) ScrollTo(lastVisibleIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sentinel.ShouldFetchAt(c.acc.State(), lastVisibleIndex) {
		return false
	}
	return c.spawnLocked()
}

// Close cancels any running fetch and waits for background work to stop.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
}

func (c *Controller) resetLocked() uint64 {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	epoch := c.acc.Reset()
	// The stale fetch never releases the flag; its epoch check fails.
	c.sentinel.Release()
	c.listener.FeedReset(epoch, c.selection)
	c.logger.Debug("feed reset", "epoch", epoch, "selection", c.selection.String())

	c.spawnLocked()
	return epoch
}

func (c *Controller) spawnLocked() bool {
	f, err := c.acquireLocked(c.ctx)
	if err != nil {
		return false
	}

	c.wg.Go(func() {
		c.run(f)
	})
	return true
}

// acquireLocked takes the in-flight flag and marks the epoch loading.
func (c *Controller) acquireLocked(parent context.Context) (*fetch, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if !c.sentinel.TryAcquire() {
		return nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(parent)
	if parent != c.ctx {
		stop := context.AfterFunc(c.ctx, cancel)
		base := cancel
		cancel = func() {
			stop()
			base()
		}
	}
	c.cancelFetch = cancel

	st := c.acc.State()
	c.acc.BeginLoad(st.Epoch)
	return &fetch{ctx: ctx, cancel: cancel, epoch: st.Epoch, sel: c.selection, initial: st.Len == 0}, nil
}

func (c *Controller) run(f *fetch) (Batch, bool) {
	defer f.cancel()

	b := c.fetchBatch(f)
	b.Epoch = f.epoch

	c.mu.Lock()
	defer c.mu.Unlock()

	applied := c.acc.AppendBatch(b)
	c.acc.EndLoad(f.epoch)
	if f.epoch != c.acc.Epoch() {
		c.logger.Debug("dropped stale batch", "epoch", f.epoch, "items", len(b.Items))
		return b, false
	}

	c.sentinel.Release()
	c.cancelFetch = nil
	if applied {
		c.listener.BatchAppended(b, c.acc.State())
		c.logger.Debug("batch appended",
			"epoch", f.epoch,
			"items", len(b.Items),
			"outcome", b.Outcome,
			"attempts", b.Attempts,
		)
	}
	return b, applied
}

func (c *Controller) fetchBatch(f *fetch) Batch {
	records, err := c.universe.Load(f.ctx)
	if err != nil {
		return Batch{Outcome: OutcomeCanceled}
	}
	eligible := EligibleIDs(records, f.sel)

	b := c.fetcher.FetchBatch(f.ctx, eligible, c.batchSize)
	for retry := 0; f.initial && retry < initialRetries; retry++ {
		if b.Outcome != OutcomeTruncated || len(b.Items) > 0 {
			break
		}
		c.logger.Warn("initial batch came back empty, retrying",
			"attempts", b.Attempts,
			"eligible", len(eligible),
		)
		b = c.fetcher.FetchBatch(f.ctx, eligible, c.batchSize)
	}
	return b
}
