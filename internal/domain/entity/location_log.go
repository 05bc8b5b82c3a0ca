package entity

import (
	"time"

	"github.com/google/uuid"
)

// LocationLog records the page a signed-in mini-program visitor opened and the code it carried.
type LocationLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	URL       string    `json:"url"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
