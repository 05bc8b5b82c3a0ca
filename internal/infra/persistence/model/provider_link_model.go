package model

import (
	"time"
)

// ProviderLinkModel mirrors the 'provider_links' table. The (provider, provider_account_id)
// unique index is what serializes concurrent first sign-ins.
type ProviderLinkModel struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	UserID            int64   `gorm:"not null;index"`
	Provider          string  `gorm:"type:varchar(32);not null;uniqueIndex:idx_provider_links_provider_account"`
	ProviderAccountID string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_links_provider_account"`
	AccessArtifact    *string `gorm:"type:text"`
	PasswordHash      string  `gorm:"type:varchar(255)"`
	CreatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProviderLinkModel) TableName() string {
	return "provider_links"
}
