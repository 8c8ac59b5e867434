package implementation

import (
	"context"
	"errors"
	"time"

	"issue-agent-be/internal/entity"
	"issue-agent-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CredentialRepositoryImpl struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) contract.CredentialStore {
	return &CredentialRepositoryImpl{db: db}
}

func (r *CredentialRepositoryImpl) Get(ctx context.Context, key string) (string, error) {
	var cred entity.Credential
	err := r.db.WithContext(ctx).First(&cred, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cred.Value, nil
}

func (r *CredentialRepositoryImpl) Put(ctx context.Context, key, value string) error {
	cred := entity.Credential{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&cred).Error
}

func (r *CredentialRepositoryImpl) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&entity.Credential{}, "key = ?", key).Error
}

func (r *CredentialRepositoryImpl) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&entity.Credential{}).
		Where("key LIKE ?", prefix+"%").
		Pluck("key", &keys).Error
	return keys, err
}
