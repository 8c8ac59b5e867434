package contract

import (
	"context"
	"time"

	"issue-agent-be/pkg/agent/state"
)

// SessionStateStore owns the durable copy of per-session conversation state.
// No second writer may exist concurrently for the same session id without
// external serialization.
type SessionStateStore interface {
	Save(ctx context.Context, st *state.SessionState) error

	// Load returns (nil, nil) when the session is absent or the stored record
	// is corrupt (decrypt failure or schema version mismatch).
	Load(ctx context.Context, sessionID string) (*state.SessionState, error)

	Delete(ctx context.Context, sessionID string) error

	// Cleanup deletes sessions whose last update is older than the threshold
	// and returns how many were removed.
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}
