package state

import (
	"time"

	"issue-agent-be/pkg/agent/protocol"
)

// SchemaVersion tags persisted session state. A state read back with a
// different version is treated as corrupt and discarded.
const SchemaVersion = 1

// NeedsElicitation is the sentinel seeded for required parameters that have no
// value yet. The system prompt teaches the model to ask for these.
const NeedsElicitation = "[NEEDS_ELICITATION]"

// SessionState is the durable per-conversation state. The engine owns an
// in-memory working copy for the duration of one turn only; the store owns the
// durable copy between turns.
type SessionState struct {
	ID string `json:"id"`

	// ActivityMessages is the conversation in order. Insertion order is
	// semantically meaningful: it is replayed into the model context on every
	// turn, oldest first.
	ActivityMessages []protocol.Activity `json:"activity_messages"`

	// IssueContext accumulates key/value facts extracted from external input,
	// merged last-write-wins across turns.
	IssueContext map[string]string `json:"issue_context"`

	LastUpdated time.Time `json:"last_updated"`
	Version     int       `json:"version"`
}

// New creates the empty state lazily used on a session's first turn.
func New(sessionID string) *SessionState {
	return &SessionState{
		ID:               sessionID,
		ActivityMessages: []protocol.Activity{},
		IssueContext:     map[string]string{},
		LastUpdated:      time.Now(),
		Version:          SchemaVersion,
	}
}

// Append adds an activity to the conversation and refreshes LastUpdated.
func (s *SessionState) Append(a protocol.Activity) {
	s.ActivityMessages = append(s.ActivityMessages, a)
	s.LastUpdated = time.Now()
}

// MergeContext folds extracted context into IssueContext, new keys winning on
// conflict.
func (s *SessionState) MergeContext(extracted map[string]string) {
	if len(extracted) == 0 {
		return
	}
	if s.IssueContext == nil {
		s.IssueContext = map[string]string{}
	}
	for k, v := range extracted {
		s.IssueContext[k] = v
	}
	s.LastUpdated = time.Now()
}

// Valid reports whether the state carries the current schema version.
func (s *SessionState) Valid() bool {
	return s != nil && s.Version == SchemaVersion
}
