package service

import (
	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/sse"
)

// EventEmitter delivers events to connected tabs. Emit must not block:
// feed listeners call it with the controller lock held.
type EventEmitter interface {
	Emit(event sse.Event)
	DisconnectSession(sessionID string)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(sse.Event) {}

// DisconnectSession implements EventEmitter.
func (NoopEmitter) DisconnectSession(string) {}

// feedEvents turns one session's feed notifications into SSE events.
type feedEvents struct {
	sessionID string
	events    EventEmitter
}

func (f feedEvents) BatchAppended(b feed.Batch, st feed.State) {
	if len(b.Items) > 0 {
		f.events.Emit(sse.NewBatchAppendedEvent(f.sessionID, sse.BatchAppendedEventData{
			Epoch:   b.Epoch,
			BatchID: b.ID,
			Outcome: string(b.Outcome),
			Items:   b.Items,
			Start:   st.Len - len(b.Items),
			Total:   st.Len,
		}))
	}
	switch {
	case b.Outcome == feed.OutcomeExhausted:
		f.events.Emit(sse.NewFeedExhaustedEvent(f.sessionID, b.Epoch, st.Len))
	case b.Outcome == feed.OutcomeTruncated && len(b.Items) == 0:
		f.events.Emit(sse.NewFeedTruncatedEvent(f.sessionID, b.Epoch, b.Attempts, st.Len))
	}
}

func (f feedEvents) FeedReset(epoch uint64, sel domain.Selection) {
	f.events.Emit(sse.NewFeedResetEvent(f.sessionID, epoch, sel))
}

// favoritesEvents broadcasts persisted favorites changes to every tab.
type favoritesEvents struct {
	events EventEmitter
}

// NewFavoritesListener returns a favorites.Listener that emits
// favorites.changed events.
func NewFavoritesListener(events EventEmitter) favorites.Listener {
	return favoritesEvents{events: events}
}

func (f favoritesEvents) FavoritesChanged(c favorites.Change) {
	f.events.Emit(sse.NewFavoritesChangedEvent(c.Op, c.Entry, c.Count))
}
