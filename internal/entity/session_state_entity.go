package entity

import "time"

// SessionStateRecord is the persisted form of a session's conversation state.
// Payload is the serialized state, optionally sealed by the store's cipher;
// Nonce is empty when the store runs without encryption.
type SessionStateRecord struct {
	SessionID string `gorm:"primaryKey"`
	Payload   []byte
	Nonce     []byte
	Version   int
	UpdatedAt time.Time `gorm:"index"`
}

func (SessionStateRecord) TableName() string {
	return "agent_session_states"
}
