package model

import (
	"time"
)

// UserModel mirrors the 'users' table.
type UserModel struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Email     string  `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	Name      string  `gorm:"type:varchar(255)"`
	Username  *string `gorm:"type:varchar(100);uniqueIndex:idx_users_username"`
	Phone     *string `gorm:"type:varchar(50)"`
	Picture   string  `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ProviderLinks []ProviderLinkModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
