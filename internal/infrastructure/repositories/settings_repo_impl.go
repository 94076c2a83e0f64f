package repositories

import (
	"context"

	"gorm.io/gorm"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/infrastructure/models"
)

// SettingsRepository stores every settings version as its own row.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetLatest(ctx context.Context) (*entities.Settings, error) {
	var m models.Setting
	if err := GetDB(ctx, r.db).WithContext(ctx).Order("version DESC").First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &entities.Settings{
		Version:              m.Version,
		CommissionRate:       m.CommissionRate,
		ExchangeRate:         m.ExchangeRate,
		DepositWalletAddress: m.DepositWalletAddress,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

// Insert fails with ErrAlreadyExists when another writer took the version.
func (r *SettingsRepository) Insert(ctx context.Context, s *entities.Settings) error {
	m := &models.Setting{
		Version:              s.Version,
		CommissionRate:       s.CommissionRate,
		ExchangeRate:         s.ExchangeRate,
		DepositWalletAddress: s.DepositWalletAddress,
		UpdatedAt:            s.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}
