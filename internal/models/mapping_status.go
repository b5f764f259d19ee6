package models

import "time"

// Mapping status values. A missing row defaults to active.
const (
	MappingStatusActive   = "active"
	MappingStatusInactive = "inactive"
)

// MappingStatus is an administrative override for one (model, provider)
// mapping. Operators use it to disable a mapping without touching the
// static catalog.
type MappingStatus struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ModelID    string `gorm:"type:varchar(255);not null;uniqueIndex:idx_mapping_status_pair"` // Catalog model id.
	ProviderID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_mapping_status_pair"`  // Provider identifier.
	Status     string `gorm:"type:varchar(16);not null;default:'active'"`                     // active or inactive.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
