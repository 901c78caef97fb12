// Package watcher reports settled changes to a single file.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors one file through its parent directory, so atomic
// replace-by-rename is seen as a modification.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	path    string
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending *pendingEvent
	exists  bool

	sendMu sync.Mutex
	closed bool

	events   chan Event
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// pendingEvent tracks a file that may still be changing
type pendingEvent struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a watcher for path. The parent directory must exist; the file
// itself may appear later.
func New(path string, logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	path, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to add watch: %w", err)
	}

	_, statErr := os.Stat(path)
	return &Watcher{
		logger:  logger,
		opts:    opts,
		path:    path,
		watcher: fw,
		exists:  statErr == nil,
		events:  make(chan Event, 16),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start processes file system events until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Go(func() { w.processEvents(ctx) })

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

// Events returns the channel for receiving settled file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and closes its channels.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		if w.pending != nil {
			w.pending.timer.Stop()
			w.pending = nil
		}
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()

		w.sendMu.Lock()
		w.closed = true
		close(w.events)
		close(w.errors)
		w.sendMu.Unlock()
	})
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename onto the path arrives as Create, so a Rename here means
		// the file moved away.
		if _, err := os.Stat(w.path); err == nil {
			w.startSettling()
			return
		}
		w.cancelPending()
		w.mu.Lock()
		w.exists = false
		w.mu.Unlock()
		w.emit(Event{Type: EventRemoved, Path: w.path})
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.startSettling()
	}
}

// startSettling (re)arms the settle timer for the watched file.
func (w *Watcher) startSettling() {
	info, err := os.Stat(w.path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.timer.Stop()
	}
	w.pending = &pendingEvent{size: info.Size(), modTime: info.ModTime()}
	w.pending.timer = time.AfterFunc(w.opts.SettleDelay, w.checkSettled)
}

// checkSettled emits the event once size and mtime stop moving.
func (w *Watcher) checkSettled() {
	w.mu.Lock()
	pending := w.pending
	if pending == nil {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(w.path)
	if err != nil {
		w.pending = nil
		w.exists = false
		w.mu.Unlock()
		w.emit(Event{Type: EventRemoved, Path: w.path})
		return
	}

	if info.Size() != pending.size || !info.ModTime().Equal(pending.modTime) {
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.opts.SettleDelay, w.checkSettled)
		w.mu.Unlock()
		return
	}

	typ := EventModified
	if !w.exists {
		typ = EventAdded
	}
	w.pending = nil
	w.exists = true
	w.mu.Unlock()

	w.emit(Event{Type: typ, Path: w.path, Size: info.Size(), ModTime: info.ModTime()})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.timer.Stop()
		w.pending = nil
	}
}

// emit may run on a timer goroutine after Stop, so it checks closed under
// sendMu before touching the channel.
func (w *Watcher) emit(event Event) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- event:
	case <-w.done:
	}
}
