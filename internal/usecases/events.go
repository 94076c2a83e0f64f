package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/metrics"
)

// eventEmitter publishes lifecycle events after commit. A failed publish
// is logged and counted; the transition it describes has already happened.
type eventEmitter struct {
	publisher repositories.EventPublisher
	metrics   *metrics.Metrics
}

func (e eventEmitter) emit(ctx context.Context, tx *entities.Transaction, at time.Time) {
	e.metrics.RecordTransition(string(tx.Status))
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishTransactionEvent(ctx, repositories.NewTransactionEvent(tx, at)); err != nil {
		e.metrics.RecordPublishFailure()
		logger.Error(ctx, "Failed to publish transaction event",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status", string(tx.Status)),
			zap.Error(err),
		)
	}
}
