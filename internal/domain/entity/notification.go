// Package entity contains the core business objects of the project.
package entity

import (
	"time"
)

// NotificationTypeWelcome marks the notification enqueued on a first-ever provider link.
const NotificationTypeWelcome = "welcome"

// Notification is a record in the notifications store consumed by the app's inbox.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWelcomeNotification builds the welcome record for a newly linked user.
func NewWelcomeNotification(userID int64, provider ProviderType) *Notification {
	return &Notification{
		UserID:  userID,
		Title:   "Welcome to Bazaar",
		Content: "Your account was created through " + provider.String() + " sign-in. Start browsing listings near you.",
		Type:    NotificationTypeWelcome,
	}
}
