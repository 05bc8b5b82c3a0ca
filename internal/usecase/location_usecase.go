package usecase

import (
	"context"

	"bazaar/internal/domain/entity"
)

// LocationLogUsecase records which page a signed-in mini-program visitor opened.
type LocationLogUsecase interface {
	Record(ctx context.Context, userID int64, url, code string) (*entity.LocationLog, error)
}
