package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	domainerrors "github.com/artdiscover/artdiscover-server/internal/errors"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/id"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/sse"
	"github.com/artdiscover/artdiscover-server/internal/viewer"
)

func TestSessionService_CreateStartsInitialLoad(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newTestSessions(t, emitter)

	sess, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(sess.ID, id.PrefixSession))
	assert.Equal(t, 1, svc.Count())

	snap := waitLoaded(t, svc, sess.ID, feed.DefaultBatchSize)
	assert.Len(t, snap.Items, feed.DefaultBatchSize)
	assert.True(t, snap.Selection.IsAll())

	require.Eventually(t, func() bool {
		return len(emitter.ofType(sse.EventBatchAppended)) == 1
	}, time.Second, 5*time.Millisecond)
	evt := emitter.ofType(sse.EventBatchAppended)[0]
	assert.Equal(t, sess.ID, evt.SessionID)
	data, ok := evt.Data.(sse.BatchAppendedEventData)
	require.True(t, ok)
	assert.Equal(t, 0, data.Start)
	assert.Equal(t, feed.DefaultBatchSize, data.Total)
}

func TestSessionService_CreateRejectsUnknownDepartment(t *testing.T) {
	svc := newTestSessions(t, nil)

	_, err := svc.Create(context.Background(), 99)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Zero(t, svc.Count())
}

func TestSessionService_GetUnknown(t *testing.T) {
	svc := newTestSessions(t, nil)

	_, err := svc.Get("ses-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSessionService_SelectDepartmentFiltersFeed(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newTestSessions(t, emitter)

	sess, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)
	waitLoaded(t, svc, sess.ID, feed.DefaultBatchSize)

	snap, err := svc.SelectDepartment(sess.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, snap.Selection.IDs())

	snap = waitLoaded(t, svc, sess.ID, feed.DefaultBatchSize)
	for _, art := range snap.Items {
		assert.Contains(t, []int{2, 6}, art.ObjectID, "only Egyptian Art objects")
	}
	assert.NotEmpty(t, emitter.ofType(sse.EventFeedReset))

	_, err = svc.SelectDepartment(sess.ID, 12)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSessionService_SelectEmptyDepartmentExhausts(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newTestSessions(t, emitter)

	sess, err := svc.Create(context.Background(), 19)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := svc.Snapshot(sess.ID)
		return err == nil && snap.Exhausted
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(emitter.ofType(sse.EventFeedExhausted)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, emitter.ofType(sse.EventBatchAppended))
}

// unavailableLookup fails every lookup with a transient error.
type unavailableLookup struct{}

func (unavailableLookup) GetObject(context.Context, int) (*domain.Artwork, error) {
	return nil, errors.New("collection api unavailable")
}

func TestSessionService_UnreliableUpstreamIsReported(t *testing.T) {
	emitter := &recordingEmitter{}
	sampler := feed.NewSampler(unavailableLookup{}, feed.SamplerOptions{Logger: logger.Discard().Logger})
	svc := NewSessionService(testUniverse, sampler, emitter, logger.Discard().Logger, SessionOptions{})
	t.Cleanup(svc.Shutdown)

	sess, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := svc.Snapshot(sess.ID)
		return err == nil && snap.LastOutcome == feed.OutcomeTruncated && !snap.LoadingInitial
	}, 2*time.Second, 5*time.Millisecond)

	snap, err := svc.Snapshot(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Exhausted)

	require.Eventually(t, func() bool {
		return len(emitter.ofType(sse.EventFeedTruncated)) == 1
	}, time.Second, 5*time.Millisecond)
	evt := emitter.ofType(sse.EventFeedTruncated)[0]
	assert.Equal(t, sess.ID, evt.SessionID)
	data, ok := evt.Data.(sse.FeedTruncatedEventData)
	require.True(t, ok)
	assert.Equal(t, snap.Epoch, data.Epoch)
	assert.Equal(t, feed.DefaultAttemptFactor*feed.DefaultBatchSize, data.Attempts)
	assert.Zero(t, data.Total)
	assert.Empty(t, emitter.ofType(sse.EventBatchAppended))
	assert.Empty(t, emitter.ofType(sse.EventFeedExhausted))
}

func TestSessionService_Scroll(t *testing.T) {
	svc := newTestSessions(t, nil)

	sess, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)
	waitLoaded(t, svc, sess.ID, feed.DefaultBatchSize)

	t.Run("requires exactly one signal", func(t *testing.T) {
		_, err := svc.Scroll(sess.ID, ScrollSignal{})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)

		idx := 1
		_, err = svc.Scroll(sess.ID, ScrollSignal{Viewport: &feed.Viewport{}, LastVisibleIndex: &idx})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})

	t.Run("geometry above threshold does nothing", func(t *testing.T) {
		started, err := svc.Scroll(sess.ID, ScrollSignal{Viewport: &feed.Viewport{
			Midpoints: []float64{100, 900, 1300, 1700},
			Height:    800,
		}})
		require.NoError(t, err)
		assert.False(t, started)
	})

	t.Run("progress past second item fetches", func(t *testing.T) {
		idx := 1
		started, err := svc.Scroll(sess.ID, ScrollSignal{LastVisibleIndex: &idx})
		require.NoError(t, err)
		assert.True(t, started)

		waitLoaded(t, svc, sess.ID, 2*feed.DefaultBatchSize)
	})
}

func TestSessionService_LoadMore(t *testing.T) {
	svc := newTestSessions(t, nil)

	sess, err := svc.Create(context.Background(), 6)
	require.NoError(t, err)
	waitLoaded(t, svc, sess.ID, feed.DefaultBatchSize)

	b, applied, err := svc.LoadMore(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, feed.OutcomeComplete, b.Outcome)

	snap, err := svc.Snapshot(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*feed.DefaultBatchSize, snap.Len)
}

func TestSessionService_ResetKeepsSelection(t *testing.T) {
	svc := newTestSessions(t, nil)

	sess, err := svc.Create(context.Background(), 11)
	require.NoError(t, err)
	first := waitLoaded(t, svc, sess.ID, feed.DefaultBatchSize)

	snap, err := svc.Reset(sess.ID)
	require.NoError(t, err)
	assert.Greater(t, snap.Epoch, first.Epoch)
	assert.Equal(t, []int{11}, snap.Selection.IDs())
}

func TestSessionService_DeleteDisconnectsStreams(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newTestSessions(t, emitter)

	sess, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(sess.ID))
	assert.Zero(t, svc.Count())
	assert.Equal(t, []string{sess.ID}, emitter.disconnects())

	assert.ErrorIs(t, svc.Delete(sess.ID), domainerrors.ErrNotFound)
}

func TestSessionService_SweepExpiresIdleSessions(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newTestSessions(t, emitter)

	now := time.Now()
	svc.now = func() time.Time { return now }

	idle, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	fresh, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, svc.sweep())

	_, err = svc.Get(idle.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = svc.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{idle.ID}, emitter.disconnects())
}

func TestSessionService_Viewer(t *testing.T) {
	svc := newTestSessions(t, nil)

	sess, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)

	_, err = svc.ClickViewer(sess.ID, ViewerClick{X: 10, Y: 10, Rect: viewer.Rect{Width: 100, Height: 100}})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	_, err = svc.OpenViewer(sess.ID, "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	st, err := svc.OpenViewer(sess.ID, "https://images.example.org/1.jpg")
	require.NoError(t, err)
	assert.True(t, st.Open)
	assert.Equal(t, viewer.MinScale, st.Scale)

	st, err = svc.ClickViewer(sess.ID, ViewerClick{X: 25, Y: 75, Rect: viewer.Rect{Width: 100, Height: 100}})
	require.NoError(t, err)
	assert.InDelta(t, 1.2, st.Scale, 1e-9)
	assert.InDelta(t, 25.0, st.OriginX, 1e-9)
	assert.InDelta(t, 75.0, st.OriginY, 1e-9)

	got, err := svc.ViewerState(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st, err = svc.CloseViewer(sess.ID)
	require.NoError(t, err)
	assert.False(t, st.Open)

	_, err = svc.ViewerState("ses-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSessionService_ShutdownClosesSessions(t *testing.T) {
	emitter := &recordingEmitter{}
	sampler := feed.NewSampler(displayableLookup{}, feed.SamplerOptions{})
	svc := NewSessionService(testUniverse, sampler, emitter, logger.Discard().Logger, SessionOptions{})
	svc.StartCleanup(time.Hour)

	_, err := svc.Create(context.Background(), domain.AllDepartments)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 6)
	require.NoError(t, err)

	svc.Shutdown()
	assert.Zero(t, svc.Count())
	assert.Len(t, emitter.disconnects(), 2)
	assert.NotPanics(t, svc.Shutdown)
}
