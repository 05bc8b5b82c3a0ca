package postgres

import (
	"context"

	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// providerLinkRepository implements the repository.ProviderLinkRepository interface.
type providerLinkRepository struct {
	db *gorm.DB
}

func NewProviderLinkRepository(db *gorm.DB) repository.ProviderLinkRepository {
	return &providerLinkRepository{
		db: db,
	}
}

// Create persists a new link record. A duplicate (provider, provider_account_id) pair
// surfaces as repository.ErrConflict.
func (repo *providerLinkRepository) Create(ctx context.Context, link *entity.ProviderLink) error {
	linkM := fromProviderLinkDomain(link)

	if err := repo.db.WithContext(ctx).Create(linkM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return errors.Wrap(repository.ErrConflict, "provider account already linked")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("invalid user reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required link information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create provider link")
	}

	link.ID = linkM.ID
	link.CreatedAt = linkM.CreatedAt

	return nil
}

// Find retrieves a link by its provider and provider-specific account ID.
func (repo *providerLinkRepository) Find(ctx context.Context, provider entity.ProviderType, providerAccountID string) (*entity.ProviderLink, error) {
	var linkM model.ProviderLinkModel

	err := repo.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider.String(), providerAccountID).
		First(&linkM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrLinkNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toProviderLinkDomain(&linkM), nil
}

// FindByUserAndProvider finds the link a specific user holds for one provider.
func (repo *providerLinkRepository) FindByUserAndProvider(ctx context.Context, userID int64, provider entity.ProviderType) (*entity.ProviderLink, error) {
	var linkM model.ProviderLinkModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider.String()).
		Order("id").
		First(&linkM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrLinkNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toProviderLinkDomain(&linkM), nil
}

func toProviderLinkDomain(data *model.ProviderLinkModel) *entity.ProviderLink {
	if data == nil {
		return nil
	}

	return &entity.ProviderLink{
		ID:                data.ID,
		UserID:            data.UserID,
		Provider:          entity.ProviderType(data.Provider),
		ProviderAccountID: data.ProviderAccountID,
		AccessArtifact:    data.AccessArtifact,
		PasswordHash:      data.PasswordHash,
		CreatedAt:         data.CreatedAt,
	}
}

func fromProviderLinkDomain(data *entity.ProviderLink) *model.ProviderLinkModel {
	if data == nil {
		return nil
	}

	return &model.ProviderLinkModel{
		ID:                data.ID,
		UserID:            data.UserID,
		Provider:          data.Provider.String(),
		ProviderAccountID: data.ProviderAccountID,
		AccessArtifact:    data.AccessArtifact,
		PasswordHash:      data.PasswordHash,
	}
}
