package postgres

import (
	"context"

	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type locationLogRepository struct {
	db *gorm.DB
}

func NewLocationLogRepository(db *gorm.DB) repository.LocationLogRepository {
	return &locationLogRepository{
		db: db,
	}
}

func (repo *locationLogRepository) Create(ctx context.Context, log *entity.LocationLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	logM := &model.LocationLogModel{
		ID:     log.ID,
		UserID: log.UserID,
		URL:    log.URL,
		Code:   log.Code,
	}

	if err := repo.db.WithContext(ctx).Create(logM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create location log")
	}

	log.CreatedAt = logM.CreatedAt

	return nil
}
