package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic names for the in-process bus.
const (
	TopicTurnCompleted = "TURN_COMPLETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by publishers. ID makes
// downstream consumers idempotent across redeliveries.
type BaseEvent struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewTurnCompleted builds the event published after every completed agent turn.
func NewTurnCompleted(sessionID string, activityKind string) BaseEvent {
	id := uuid.NewString()
	return BaseEvent{
		ID:   id,
		Type: TopicTurnCompleted,
		Data: map[string]interface{}{
			"event_id":      id,
			"session_id":    sessionID,
			"activity_kind": activityKind,
		},
		OccurredAt: time.Now(),
	}
}
