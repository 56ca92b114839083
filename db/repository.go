package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository defines decoupled operations for credential persistence.
type CredentialRepository interface {
	// Get returns "" when nothing is stored under key.
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// gormCredentialRepo is a GORM-backed implementation of CredentialRepository.
// Use constructor NewCredentialRepository to obtain an instance.
type gormCredentialRepo struct{ db *gorm.DB }

// NewCredentialRepository creates a CredentialRepository. Accepts *gorm.DB to avoid global access.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &gormCredentialRepo{db: db}
}

func (r *gormCredentialRepo) Get(ctx context.Context, key string) (string, error) {
	if r.db == nil {
		return "", fmt.Errorf("repository not initialized")
	}
	var cred Credential
	err := r.db.WithContext(ctx).First(&cred, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential %q: %w", key, err)
	}
	return cred.Value, nil
}

func (r *gormCredentialRepo) Put(ctx context.Context, key, value string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	cred := Credential{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cred).Error
	if err != nil {
		return fmt.Errorf("failed to store credential %q: %w", key, err)
	}
	return nil
}

func (r *gormCredentialRepo) Delete(ctx context.Context, keys ...string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Delete(&Credential{}).Error; err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
