package models

import (
	"time"
)

// StorageEntry is one key of the durable local storage.
type StorageEntry struct {
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(100)"`
	Value     string    `gorm:"column:storage_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (StorageEntry) TableName() string {
	return "local_storage"
}
