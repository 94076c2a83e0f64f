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
)

// CardRepository implements card storage
type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card *entities.Card) error {
	m := &models.Card{
		ID:           card.ID,
		TraderID:     card.TraderID,
		CardNumber:   card.CardNumber,
		BankName:     card.BankName,
		HolderName:   card.HolderName,
		Limit:        card.Limit,
		CurrentUsage: card.CurrentUsage,
		Status:       string(card.Status),
		Currency:     card.Currency,
		Version:      card.Version,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
	}
	return GetDB(ctx, r.db).WithContext(ctx).Create(m).Error
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Card, error) {
	var m models.Card
	q := lockIfRequested(ctx, GetDB(ctx, r.db).WithContext(ctx))
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return toCardEntity(&m), nil
}

// ListByIDs includes soft-deleted cards so historical transactions keep
// their card snapshot.
func (r *CardRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Card, error) {
	if len(ids) == 0 {
		return []*entities.Card{}, nil
	}
	var ms []models.Card
	if err := GetDB(ctx, r.db).WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	return toCardEntities(ms), nil
}

func (r *CardRepository) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]*entities.Card, error) {
	var ms []models.Card
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("trader_id = ?", traderID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toCardEntities(ms), nil
}

func (r *CardRepository) CountByTrader(ctx context.Context, traderID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Card{}).Where("trader_id = ?", traderID).Count(&total).Error
	return total, err
}

// ListActiveByCurrency returns allocation candidates. Capacity is compared by
// the caller in exact decimal arithmetic, not in SQL.
func (r *CardRepository) ListActiveByCurrency(ctx context.Context, currency string) ([]*entities.Card, error) {
	var ms []models.Card
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Joins("JOIN traders ON traders.id = cards.trader_id").
		Where("cards.status = ? AND cards.currency = ? AND traders.is_blocked = ?",
			string(entities.CardStatusActive), currency, false).
		Order("cards.created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toCardEntities(ms), nil
}

// UpdateUsage is a compare-and-set on version.
func (r *CardRepository) UpdateUsage(ctx context.Context, id uuid.UUID, usage decimal.Decimal, expectedVersion int64) error {
	return r.casUpdate(ctx, id, expectedVersion, map[string]interface{}{
		"current_usage": usage,
	})
}

// UpdateSettings is a compare-and-set on version.
func (r *CardRepository) UpdateSettings(ctx context.Context, id uuid.UUID, status entities.CardStatus, limit decimal.Decimal, expectedVersion int64) error {
	return r.casUpdate(ctx, id, expectedVersion, map[string]interface{}{
		"status":     string(status),
		"card_limit": limit,
	})
}

func (r *CardRepository) casUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]interface{}) error {
	updates["version"] = expectedVersion + 1
	updates["updated_at"] = time.Now().UTC()

	db := GetDB(ctx, r.db).WithContext(ctx)
	result := db.Model(&models.Card{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Session(&gorm.Session{NewDB: true}).Model(&models.Card{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrNotFound
		}
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Delete(&models.Card{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toCardEntities(ms []models.Card) []*entities.Card {
	cards := make([]*entities.Card, 0, len(ms))
	for i := range ms {
		cards = append(cards, toCardEntity(&ms[i]))
	}
	return cards
}

func toCardEntity(m *models.Card) *entities.Card {
	return &entities.Card{
		ID:           m.ID,
		TraderID:     m.TraderID,
		CardNumber:   m.CardNumber,
		BankName:     m.BankName,
		HolderName:   m.HolderName,
		Limit:        m.Limit,
		CurrentUsage: m.CurrentUsage,
		Status:       entities.CardStatus(m.Status),
		Currency:     m.Currency,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
