package repository

import (
	"context"

	"bazaar/internal/domain/entity"
)

type LocationLogRepository interface {
	Create(ctx context.Context, log *entity.LocationLog) error
}
