package memory

import (
	"context"
	"time"

	"issue-agent-be/pkg/agent/state"

	"github.com/patrickmn/go-cache"
)

// SessionStateRepository is the volatile session state store used in
// development and tests. Entries expire after the default TTL even without an
// explicit cleanup sweep.
type SessionStateRepository struct {
	cache *cache.Cache
}

func NewSessionStateRepository() *SessionStateRepository {
	// Default expiration of 1 hour, purging expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionStateRepository{
		cache: c,
	}
}

func (r *SessionStateRepository) Save(_ context.Context, st *state.SessionState) error {
	r.cache.Set(st.ID, st, cache.DefaultExpiration)
	return nil
}

func (r *SessionStateRepository) Load(_ context.Context, sessionID string) (*state.SessionState, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, nil
	}
	st := x.(*state.SessionState)
	if !st.Valid() {
		r.cache.Delete(sessionID)
		return nil, nil
	}
	return st, nil
}

func (r *SessionStateRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *SessionStateRepository) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	var removed int64
	for key, item := range r.cache.Items() {
		st, ok := item.Object.(*state.SessionState)
		if ok && st.LastUpdated.Before(cutoff) {
			r.cache.Delete(key)
			removed++
		}
	}
	return removed, nil
}
