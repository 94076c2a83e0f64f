package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/infrastructure/models"
	"p2p-ramp.backend/pkg/utils"
)

// TraderRepository implements trader profile and balance storage
type TraderRepository struct {
	db *gorm.DB
}

func NewTraderRepository(db *gorm.DB) *TraderRepository {
	return &TraderRepository{db: db}
}

func (r *TraderRepository) Create(ctx context.Context, trader *entities.Trader) error {
	m := &models.Trader{
		ID:          trader.ID,
		UserID:      trader.UserID,
		Name:        trader.Name,
		Nickname:    trader.Nickname,
		USDTAddress: trader.USDTAddress,
		Phone:       trader.Phone,
		Balance:     trader.Balance,
		IsBlocked:   trader.IsBlocked,
		Version:     trader.Version,
		CreatedAt:   trader.CreatedAt,
		UpdatedAt:   trader.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *TraderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Trader, error) {
	var m models.Trader
	q := lockIfRequested(ctx, GetDB(ctx, r.db).WithContext(ctx))
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return toTraderEntity(&m), nil
}

func (r *TraderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Trader, error) {
	var m models.Trader
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return toTraderEntity(&m), nil
}

// UpdateBalance is a compare-and-set on version.
func (r *TraderRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) error {
	db := GetDB(ctx, r.db).WithContext(ctx)
	result := db.Model(&models.Trader{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"balance":    balance,
			"version":    expectedVersion + 1,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *TraderRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Trader{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_blocked": blocked, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

type traderWithEmailRow struct {
	models.Trader
	Email string
}

// List returns traders newest first, each with its user's email.
func (r *TraderRepository) List(ctx context.Context, p utils.PaginationParams) ([]*entities.TraderWithEmail, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Trader{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []traderWithEmailRow
	q := db.Table("traders").
		Select("traders.*, users.email AS email").
		Joins("LEFT JOIN users ON users.id = traders.user_id").
		Order("traders.created_at DESC")
	if err := paginate(q, p).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.TraderWithEmail, 0, len(rows))
	for i := range rows {
		out = append(out, &entities.TraderWithEmail{
			Trader: *toTraderEntity(&rows[i].Trader),
			Email:  rows[i].Email,
		})
	}
	return out, total, nil
}

func (r *TraderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Trader{}).Count(&total).Error
	return total, err
}

func (r *TraderRepository) missingOrConflict(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Trader{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrNotFound
	}
	return domainerrors.ErrConflict
}

func toTraderEntity(m *models.Trader) *entities.Trader {
	return &entities.Trader{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Nickname:    m.Nickname,
		USDTAddress: m.USDTAddress,
		Phone:       m.Phone,
		Balance:     m.Balance,
		IsBlocked:   m.IsBlocked,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
