package service

import (
	"context"
	"time"
)

// AccountLinkedEvent is published after a first-ever provider link commits.
type AccountLinkedEvent struct {
	RequestID         string    `json:"request_id,omitempty"` // For distributed tracing
	UserID            int64     `json:"user_id"`
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"provider_account_id"`
	LinkedAt          time.Time `json:"linked_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	PublishAccountLinked(ctx context.Context, event *AccountLinkedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
