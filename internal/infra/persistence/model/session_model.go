package model

import (
	"time"

	"github.com/google/uuid"
)

// PlatformSessionModel mirrors the 'platform_sessions' table. IDs are generated by the application.
type PlatformSessionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	Provider  string    `gorm:"type:varchar(32);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PlatformSessionModel) TableName() string {
	return "platform_sessions"
}
