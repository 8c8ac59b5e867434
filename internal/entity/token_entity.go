package entity

import (
	"encoding/json"
	"time"
)

// StoredToken is the per-workspace OAuth token persisted as JSON in the
// credential store. ExpiresAt is absolute epoch millis and must be checked
// before every use: a token at or past expiry is never handed to a caller.
type StoredToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (t *StoredToken) Expired(now time.Time) bool {
	return t.ExpiresAt <= now.UnixMilli()
}

func (t *StoredToken) Marshal() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func UnmarshalStoredToken(raw string) (*StoredToken, error) {
	var t StoredToken
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}
