package postgres

import (
	"context"

	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

func (repo *sessionRepository) Create(ctx context.Context, session *entity.PlatformSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	sessionM := &model.PlatformSessionModel{
		ID:        session.ID,
		UserID:    session.UserID,
		Provider:  session.Provider.String(),
		ExpiresAt: session.ExpiresAt,
	}

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create platform session")
	}

	session.CreatedAt = sessionM.CreatedAt

	return nil
}

func (repo *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PlatformSession, error) {
	var sessionM model.PlatformSessionModel

	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&sessionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find platform session")
	}

	return &entity.PlatformSession{
		ID:        sessionM.ID,
		UserID:    sessionM.UserID,
		Provider:  entity.ProviderType(sessionM.Provider),
		ExpiresAt: sessionM.ExpiresAt,
		CreatedAt: sessionM.CreatedAt,
	}, nil
}

// Delete removes the session row; a missing row is not an error.
func (repo *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PlatformSessionModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete platform session")
	}

	return nil
}
