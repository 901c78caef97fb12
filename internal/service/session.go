package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	domainerrors "github.com/artdiscover/artdiscover-server/internal/errors"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/id"
	"github.com/artdiscover/artdiscover-server/internal/viewer"
)

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// Session is one browser tab: its own feed and viewer.
type Session struct {
	ID        string
	CreatedAt time.Time
	Feed      *feed.Controller
	Viewer    *viewer.Viewer

	lastSeen atomic.Int64 // Unix nanos
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// SessionOptions configures a SessionService. Zero values take defaults.
type SessionOptions struct {
	BatchSize     int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// ScrollSignal is one scroll report from a tab. Exactly one of Viewport and
// LastVisibleIndex is set.
type ScrollSignal struct {
	Viewport         *feed.Viewport
	LastVisibleIndex *int
}

// SessionService owns the live feed sessions.
type SessionService struct {
	universe    feed.UniverseLoader
	fetcher     feed.BatchFetcher
	events      EventEmitter
	logger      *slog.Logger
	batchSize   int
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionService creates a session service. Call StartCleanup to expire
// idle sessions.
func NewSessionService(
	universe feed.UniverseLoader,
	fetcher feed.BatchFetcher,
	events EventEmitter,
	logger *slog.Logger,
	opts SessionOptions,
) *SessionService {
	if opts.BatchSize < 1 {
		opts.BatchSize = feed.DefaultBatchSize
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if events == nil {
		events = NoopEmitter{}
	}
	return &SessionService{
		universe:    universe,
		fetcher:     fetcher,
		events:      events,
		logger:      logger,
		batchSize:   opts.BatchSize,
		idleTimeout: opts.IdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*Session),
		done:        make(chan struct{}),
	}
}

// Create starts a new session on departmentID and kicks off its initial load.
func (s *SessionService) Create(_ context.Context, departmentID int) (*Session, error) {
	if err := validateDepartment(departmentID); err != nil {
		return nil, err
	}

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, domainerrors.Internal("failed to generate session id").WithCause(err)
	}

	now := s.now()
	sess := &Session{
		ID:        sessionID,
		CreatedAt: now,
		Viewer:    viewer.New(),
	}
	sess.touch(now)
	sess.Feed = feed.NewController(s.universe, s.fetcher, feed.Options{
		BatchSize: s.batchSize,
		Selection: domain.NewSelection(departmentID),
		Listener:  feedEvents{sessionID: sessionID, events: s.events},
		Logger:    s.logger.With("session_id", sessionID),
	})

	s.mu.Lock()
	s.sessions[sessionID] = sess
	total := len(s.sessions)
	s.mu.Unlock()

	sess.Feed.Start()
	s.logger.Info("session created",
		"session_id", sessionID,
		"department_id", departmentID,
		"total_sessions", total,
	)
	return sess, nil
}

// Get returns a live session and marks it used.
func (s *SessionService) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domainerrors.NotFoundf("session %s not found", sessionID)
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete ends a session, canceling its fetch and closing its streams.
func (s *SessionService) Delete(sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return domainerrors.NotFoundf("session %s not found", sessionID)
	}

	s.closeSession(sess)
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot returns a session's feed.
func (s *SessionService) Snapshot(sessionID string) (feed.Snapshot, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return feed.Snapshot{}, err
	}
	return sess.Feed.Snapshot(), nil
}

// SelectDepartment applies a department button press and returns the
// reset feed.
func (s *SessionService) SelectDepartment(sessionID string, departmentID int) (feed.Snapshot, error) {
	if err := validateDepartment(departmentID); err != nil {
		return feed.Snapshot{}, err
	}
	sess, err := s.Get(sessionID)
	if err != nil {
		return feed.Snapshot{}, err
	}
	sess.Feed.SelectDepartment(departmentID)
	return sess.Feed.Snapshot(), nil
}

// Reset empties a session's feed under its current selection.
func (s *SessionService) Reset(sessionID string) (feed.Snapshot, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return feed.Snapshot{}, err
	}
	sess.Feed.Reset()
	return sess.Feed.Snapshot(), nil
}

// Scroll feeds a scroll signal to the session's sentinel. It reports whether
// a batch fetch was started.
func (s *SessionService) Scroll(sessionID string, sig ScrollSignal) (bool, error) {
	if (sig.Viewport == nil) == (sig.LastVisibleIndex == nil) {
		return false, domainerrors.Validation("exactly one of viewport or lastVisibleIndex is required")
	}
	sess, err := s.Get(sessionID)
	if err != nil {
		return false, err
	}
	if sig.Viewport != nil {
		return sess.Feed.Scroll(*sig.Viewport), nil
	}
	return sess.Feed.ScrollTo(*sig.LastVisibleIndex), nil
}

// LoadMore fetches the next batch synchronously.
func (s *SessionService) LoadMore(ctx context.Context, sessionID string) (feed.Batch, bool, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return feed.Batch{}, false, err
	}
	b, applied, err := sess.Feed.LoadMore(ctx)
	if err != nil {
		if domainerrors.Is(err, feed.ErrBusy) {
			return feed.Batch{}, false, domainerrors.Conflict("a batch is already loading").WithCause(err)
		}
		return feed.Batch{}, false, domainerrors.Unavailable("feed is closed").WithCause(err)
	}
	return b, applied, nil
}

// StartCleanup launches the idle-session sweeper.
func (s *SessionService) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	s.wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	})
}

// sweep ends sessions idle for longer than the idle timeout.
func (s *SessionService) sweep() int {
	cutoff := s.now().Add(-s.idleTimeout)

	var expired []*Session
	s.mu.Lock()
	for sid, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, sid)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.closeSession(sess)
	}
	if len(expired) > 0 {
		s.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Shutdown stops the sweeper and closes every session.
func (s *SessionService) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		s.closeSession(sess)
	}
}

func (s *SessionService) closeSession(sess *Session) {
	sess.Feed.Close()
	s.events.DisconnectSession(sess.ID)
}

func validateDepartment(departmentID int) error {
	if departmentID == domain.AllDepartments {
		return nil
	}
	if _, ok := domain.LookupDepartment(departmentID); !ok {
		return domainerrors.Validationf("unknown department %d", departmentID)
	}
	return nil
}
