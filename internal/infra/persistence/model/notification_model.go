package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationModel mirrors the 'notifications' table read by the inbox.
type NotificationModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;index"`
	Title     string `gorm:"type:varchar(255);not null"`
	Content   string `gorm:"type:text;not null"`
	Type      string `gorm:"type:varchar(32);not null"`
	IsRead    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (NotificationModel) TableName() string {
	return "notifications"
}

// LocationLogModel mirrors the 'location_logs' table.
type LocationLogModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	URL       string    `gorm:"type:text;not null"`
	Code      string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (LocationLogModel) TableName() string {
	return "location_logs"
}

// All lists every model, in dependency order, for schema bootstrapping in tests.
func All() []any {
	return []any{
		&UserModel{},
		&ProviderLinkModel{},
		&PlatformSessionModel{},
		&NotificationModel{},
		&LocationLogModel{},
	}
}
