package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"issue-agent-be/internal/entity"
	"issue-agent-be/internal/pkg/cryptoutil"
	"issue-agent-be/internal/pkg/logger"
	"issue-agent-be/internal/repository/contract"
	"issue-agent-be/pkg/agent/state"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStateRepositoryImpl is the durable session state store. Payloads are
// serialized to JSON and sealed by the configured cipher before hitting the
// database. A record whose decrypted payload disagrees with the recorded
// schema version is treated as corrupt: Load returns nil.
type SessionStateRepositoryImpl struct {
	db     *gorm.DB
	cipher cryptoutil.Cipher
	log    logger.ILogger
}

func NewSessionStateRepository(db *gorm.DB, cipher cryptoutil.Cipher, log logger.ILogger) contract.SessionStateStore {
	if cipher == nil {
		cipher = cryptoutil.NoopCipher{}
	}
	return &SessionStateRepositoryImpl{
		db:     db,
		cipher: cipher,
		log:    log,
	}
}

func (r *SessionStateRepositoryImpl) Save(ctx context.Context, st *state.SessionState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}

	blob, nonce, err := r.cipher.Seal(payload)
	if err != nil {
		return err
	}

	record := entity.SessionStateRecord{
		SessionID: st.ID,
		Payload:   blob,
		Nonce:     nonce,
		Version:   st.Version,
		UpdatedAt: time.Now(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(&record).Error
}

func (r *SessionStateRepositoryImpl) Load(ctx context.Context, sessionID string) (*state.SessionState, error) {
	var record entity.SessionStateRecord
	err := r.db.WithContext(ctx).First(&record, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payload, err := r.cipher.Open(record.Payload, record.Nonce)
	if err != nil {
		r.log.Warn("SessionStateStore", "Discarding undecryptable session state", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, nil
	}

	var st state.SessionState
	if err := json.Unmarshal(payload, &st); err != nil {
		r.log.Warn("SessionStateStore", "Discarding unparseable session state", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, nil
	}

	if !st.Valid() || st.Version != record.Version {
		r.log.Warn("SessionStateStore", "Discarding session state with version mismatch", map[string]interface{}{
			"session_id":      sessionID,
			"payload_version": st.Version,
			"record_version":  record.Version,
		})
		return nil, nil
	}

	return &st, nil
}

func (r *SessionStateRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Delete(&entity.SessionStateRecord{}, "session_id = ?", sessionID).Error
}

func (r *SessionStateRepositoryImpl) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&entity.SessionStateRecord{})
	return result.RowsAffected, result.Error
}
