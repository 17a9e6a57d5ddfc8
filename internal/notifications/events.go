// internal/notifications/events.go
// Event records emitted on every status-changing match operation.
// Delivery (push, email, websocket) is a collaborator concern; the
// lifecycle service only produces these records.

package notifications

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the status-changing match events.
type EventType string

const (
	EventJoined        EventType = "joined"
	EventInvited       EventType = "invited"
	EventAccepted      EventType = "accepted"
	EventDeclined      EventType = "declined"
	EventLeft          EventType = "left"
	EventMatchFull     EventType = "match_full"
	EventMatchReopened EventType = "match_reopened"
)

// Event is the record handed to delivery collaborators.
type Event struct {
	Type      EventType `json:"type"`
	MatchID   uuid.UUID `json:"match_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, matchID uuid.UUID, userID int64) Event {
	return Event{
		Type:      eventType,
		MatchID:   matchID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers event records. Publish must never fail the calling
// operation; implementations log and move on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Fanout forwards each event to every configured publisher.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Publish(ctx context.Context, event Event) {
	for _, p := range f.publishers {
		p.Publish(ctx, event)
	}
}

// LogPublisher writes events to the application log. Used as the default
// sink and in development.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) {
	log.Printf("event %s match=%s user=%d", event.Type, event.MatchID, event.UserID)
}

// Nop discards events. Used in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
