package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates the storage table if it is missing.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.StorageEntry{}); err != nil {
		return fmt.Errorf("failed to migrate local storage: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// GormStore keeps key/value pairs in a SQL table through gorm. It backs the
// sqlite and mysql drivers.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	var entry models.StorageEntry
	err := s.db.WithContext(ctx).
		Where(&models.StorageEntry{Key: key}).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *GormStore) SetItem(ctx context.Context, key, value string) error {
	entry := models.StorageEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"storage_value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *GormStore) RemoveItem(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where(&models.StorageEntry{Key: key}).
		Delete(&models.StorageEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}
