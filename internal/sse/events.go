// Package sse implements Server-Sent Events that tell a browser tab when its
// feed changed.
package sse

import (
	"time"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is the first event on every stream.
	EventConnected EventType = "connected"

	// EventBatchAppended represents a batch landing in a session's feed.
	EventBatchAppended EventType = "feed.batch_appended"
	// EventFeedReset represents a session's feed being emptied for a new epoch.
	EventFeedReset EventType = "feed.reset"
	// EventFeedExhausted represents a session's selection running out of artworks.
	EventFeedExhausted EventType = "feed.exhausted"
	// EventFeedTruncated represents a batch that gave up with nothing to show
	// because the upstream failed on every attempt it was allowed.
	EventFeedTruncated EventType = "feed.truncated"

	// EventFavoritesNudge asks the tab to show the consent prompt.
	EventFavoritesNudge EventType = "favorites.nudge"
	// EventFavoritesChanged represents a persisted favorites mutation.
	// Sent to every session since favorites are shared by the data directory.
	EventFavoritesChanged EventType = "favorites.changed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// SessionID limits delivery to clients of one session.
	// Empty means broadcast to all.
	SessionID string `json:"-"`
}

// BatchAppendedEventData is the data payload for feed.batch_appended.
// Items are the new artworks only; Total is the feed length after the append.
type BatchAppendedEventData struct {
	Epoch   uint64           `json:"epoch"`
	BatchID string           `json:"batch_id"`
	Outcome string           `json:"outcome"`
	Items   []domain.Artwork `json:"items"`
	Start   int              `json:"start"`
	Total   int              `json:"total"`
}

// FeedResetEventData is the data payload for feed.reset.
type FeedResetEventData struct {
	Epoch       uint64 `json:"epoch"`
	Departments []int  `json:"departments"`
}

// FeedExhaustedEventData is the data payload for feed.exhausted.
type FeedExhaustedEventData struct {
	Epoch uint64 `json:"epoch"`
	Total int    `json:"total"`
}

// FeedTruncatedEventData is the data payload for feed.truncated.
type FeedTruncatedEventData struct {
	Epoch    uint64 `json:"epoch"`
	Attempts int    `json:"attempts"`
	Total    int    `json:"total"`
}

// FavoritesNudgeEventData is the data payload for favorites.nudge.
type FavoritesNudgeEventData struct {
	ObjectID int    `json:"object_id"`
	Consent  string `json:"consent"`
}

// FavoritesChangedEventData is the data payload for favorites.changed.
type FavoritesChangedEventData struct {
	Op    string               `json:"op"`
	Entry domain.FavoriteEntry `json:"entry"`
	Count int                  `json:"count"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// ConnectedEventData is the data payload for the connected event.
type ConnectedEventData struct {
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id"`
}

// NewBatchAppendedEvent creates a feed.batch_appended event.
func NewBatchAppendedEvent(sessionID string, data BatchAppendedEventData) Event {
	return Event{
		Type:      EventBatchAppended,
		Data:      data,
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewFeedResetEvent creates a feed.reset event.
func NewFeedResetEvent(sessionID string, epoch uint64, sel domain.Selection) Event {
	return Event{
		Type:      EventFeedReset,
		Data:      FeedResetEventData{Epoch: epoch, Departments: sel.IDs()},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewFeedExhaustedEvent creates a feed.exhausted event.
func NewFeedExhaustedEvent(sessionID string, epoch uint64, total int) Event {
	return Event{
		Type:      EventFeedExhausted,
		Data:      FeedExhaustedEventData{Epoch: epoch, Total: total},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewFeedTruncatedEvent creates a feed.truncated event.
func NewFeedTruncatedEvent(sessionID string, epoch uint64, attempts, total int) Event {
	return Event{
		Type:      EventFeedTruncated,
		Data:      FeedTruncatedEventData{Epoch: epoch, Attempts: attempts, Total: total},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewFavoritesNudgeEvent creates a favorites.nudge event.
func NewFavoritesNudgeEvent(sessionID string, objectID int, consent domain.Consent) Event {
	return Event{
		Type:      EventFavoritesNudge,
		Data:      FavoritesNudgeEventData{ObjectID: objectID, Consent: consent.String()},
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}

// NewFavoritesChangedEvent creates a favorites.changed event.
func NewFavoritesChangedEvent(op string, entry domain.FavoriteEntry, count int) Event {
	return Event{
		Type:      EventFavoritesChanged,
		Data:      FavoritesChangedEventData{Op: op, Entry: entry, Count: count},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
