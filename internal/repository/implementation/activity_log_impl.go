package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"issue-agent-be/internal/repository/contract"
	"issue-agent-be/pkg/agent/protocol"

	"github.com/redis/go-redis/v9"
)

const activityLogKeyPrefix = "activity_log:"

// ActivityLogImpl keeps the per-session append-only activity log as a Redis
// list, one JSON-encoded activity per element.
type ActivityLogImpl struct {
	rdb *redis.Client
}

func NewActivityLog(rdb *redis.Client) contract.ActivityLog {
	return &ActivityLogImpl{rdb: rdb}
}

func (l *ActivityLogImpl) Append(ctx context.Context, sessionID string, activity protocol.Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	return l.rdb.RPush(ctx, activityLogKeyPrefix+sessionID, payload).Err()
}

func (l *ActivityLogImpl) GetBySessionID(ctx context.Context, sessionID string) ([]protocol.Activity, error) {
	raw, err := l.rdb.LRange(ctx, activityLogKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	activities := make([]protocol.Activity, 0, len(raw))
	for _, item := range raw {
		var a protocol.Activity
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("unmarshal activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}
