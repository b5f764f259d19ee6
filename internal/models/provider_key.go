package models

import (
	"time"

	"gorm.io/datatypes"
)

// Provider key statuses.
const (
	ProviderKeyStatusActive   = "active"
	ProviderKeyStatusDisabled = "disabled"
)

// ProviderKey stores an organization's upstream provider credential.
type ProviderKey struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID uint64 `gorm:"not null;index:idx_provider_keys_org"` // Owning organization.
	Provider       string `gorm:"type:varchar(64);not null;index"`      // Provider identifier.
	Status         string `gorm:"type:varchar(16);not null;default:'active'"` // active or disabled.

	APIKey   string         `gorm:"type:text"` // Stored provider API key.
	Metadata datatypes.JSON `gorm:"type:jsonb"` // Extra per-key settings.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
