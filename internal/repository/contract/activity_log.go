package contract

import (
	"context"

	"issue-agent-be/pkg/agent/protocol"
)

// ActivityLog is the append-only record of activities emitted per session,
// kept separately from the session state so it survives state cleanup.
type ActivityLog interface {
	Append(ctx context.Context, sessionID string, activity protocol.Activity) error
	GetBySessionID(ctx context.Context, sessionID string) ([]protocol.Activity, error)
}
