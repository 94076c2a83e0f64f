package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/pkg/utils"
)

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrNotFound
	}
	return err
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// paginate applies limit and offset; a zero limit returns every row.
func paginate(q *gorm.DB, p utils.PaginationParams) *gorm.DB {
	if p.Limit <= 0 {
		return q
	}
	return q.Limit(p.Limit).Offset(p.CalculateOffset())
}
