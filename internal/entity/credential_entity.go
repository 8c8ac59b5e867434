package entity

import "time"

// Credential is one opaque secret keyed by a prefixed identifier, e.g.
// "oauth_token:<workspace_id>".
type Credential struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (Credential) TableName() string {
	return "agent_credentials"
}
