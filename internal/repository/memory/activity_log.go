package memory

import (
	"context"
	"sync"

	"issue-agent-be/pkg/agent/protocol"
)

// ActivityLog is the in-memory append-only log used in development and tests.
type ActivityLog struct {
	mu      sync.RWMutex
	entries map[string][]protocol.Activity
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{
		entries: make(map[string][]protocol.Activity),
	}
}

func (l *ActivityLog) Append(_ context.Context, sessionID string, activity protocol.Activity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[sessionID] = append(l.entries[sessionID], activity)
	return nil
}

func (l *ActivityLog) GetBySessionID(_ context.Context, sessionID string) ([]protocol.Activity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]protocol.Activity, len(l.entries[sessionID]))
	copy(out, l.entries[sessionID])
	return out, nil
}
