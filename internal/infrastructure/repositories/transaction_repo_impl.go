package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/infrastructure/models"
	"p2p-ramp.backend/pkg/utils"
)

// TransactionRepository implements deposit storage
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new transaction. A clash on the open-per-currency index
// surfaces as ErrActiveTransactionExists.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	m := toTransactionModel(tx)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return domainerrors.ErrActiveTransactionExists
		}
		return err
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	var m models.Transaction
	q := lockIfRequested(ctx, GetDB(ctx, r.db).WithContext(ctx))
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return toTransactionEntity(&m), nil
}

// Transition is a compare-and-set on status.
func (r *TransactionRepository) Transition(ctx context.Context, tx *entities.Transaction, from entities.TransactionStatus) error {
	tx.UpdatedAt = time.Now().UTC()
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", tx.ID, string(from)).
		Updates(map[string]interface{}{
			"status":            string(tx.Status),
			"cancel_reason":     string(tx.CancelReason),
			"user_confirmed_at": tx.UserConfirmedAt,
			"completed_at":      tx.CompletedAt,
			"updated_at":        tx.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *TransactionRepository) HasOpenForUser(ctx context.Context, userID uuid.UUID, currency string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND currency = ? AND status IN ?", userID, currency, openStatuses()).
		Count(&count).Error
	return count > 0, err
}

func (r *TransactionRepository) CountOpenByCard(ctx context.Context, cardID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("card_id = ? AND status IN ?", cardID, openStatuses()).
		Count(&count).Error
	return count, err
}

// List returns transactions newest first.
func (r *TransactionRepository) List(ctx context.Context, filter entities.TransactionFilter, p utils.PaginationParams) ([]*entities.Transaction, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	var total int64
	if err := applyFilter(db.Model(&models.Transaction{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Transaction
	q := applyFilter(db.Model(&models.Transaction{}), filter).Order("created_at DESC")
	if err := paginate(q, p).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, toTransactionEntity(&ms[i]))
	}
	return out, total, nil
}

// Count counts rows matching filter and, when given, any of statuses.
func (r *TransactionRepository) Count(ctx context.Context, filter entities.TransactionFilter, statuses ...entities.TransactionStatus) (int64, error) {
	q := applyFilter(GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}), filter)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

func (r *TransactionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*entities.Transaction, error) {
	var ms []models.Transaction
	q := GetDB(ctx, r.db).WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(entities.TransactionStatusPending), now.UTC()).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, toTransactionEntity(&ms[i]))
	}
	return out, nil
}

func applyFilter(q *gorm.DB, f entities.TransactionFilter) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.TraderID != nil {
		q = q.Where("trader_id = ?", *f.TraderID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	return q
}

func openStatuses() []string {
	return statusStrings(entities.OpenTransactionStatuses)
}

func statusStrings(statuses []entities.TransactionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toTransactionModel(tx *entities.Transaction) *models.Transaction {
	return &models.Transaction{
		ID:               tx.ID,
		UserID:           tx.UserID,
		TraderID:         tx.TraderID,
		CardID:           tx.CardID,
		CryptoAmount:     tx.CryptoAmount,
		FiatAmount:       tx.FiatAmount,
		CommissionAmount: tx.CommissionAmount,
		ExchangeRate:     tx.ExchangeRate,
		CommissionRate:   tx.CommissionRate,
		SettingsVersion:  tx.SettingsVersion,
		Currency:         tx.Currency,
		Status:           string(tx.Status),
		CancelReason:     string(tx.CancelReason),
		ExpiresAt:        tx.ExpiresAt,
		UserConfirmedAt:  tx.UserConfirmedAt,
		CompletedAt:      tx.CompletedAt,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

func toTransactionEntity(m *models.Transaction) *entities.Transaction {
	return &entities.Transaction{
		ID:               m.ID,
		UserID:           m.UserID,
		TraderID:         m.TraderID,
		CardID:           m.CardID,
		CryptoAmount:     m.CryptoAmount,
		FiatAmount:       m.FiatAmount,
		CommissionAmount: m.CommissionAmount,
		ExchangeRate:     m.ExchangeRate,
		CommissionRate:   m.CommissionRate,
		SettingsVersion:  m.SettingsVersion,
		Currency:         m.Currency,
		Status:           entities.TransactionStatus(m.Status),
		CancelReason:     entities.CancelReason(m.CancelReason),
		ExpiresAt:        m.ExpiresAt,
		UserConfirmedAt:  m.UserConfirmedAt,
		CompletedAt:      m.CompletedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
