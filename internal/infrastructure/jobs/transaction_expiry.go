package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"p2p-ramp.backend/pkg/logger"
)

// maxRoundsPerTick bounds how many full batches one tick may drain.
const maxRoundsPerTick = 10

type staleExpirer interface {
	ExpireStale(ctx context.Context, now time.Time, limit int) (int, error)
}

// TransactionExpiryJob cancels pending transactions whose reservation ran
// out, returning their capacity to the cards.
type TransactionExpiryJob struct {
	sweeper  staleExpirer
	interval time.Duration
	batch    int
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

func NewTransactionExpiryJob(sweeper staleExpirer, interval time.Duration, batch int) *TransactionExpiryJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &TransactionExpiryJob{
		sweeper:  sweeper,
		interval: interval,
		batch:    batch,
		stop:     make(chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start blocks until ctx is done or Stop is called.
func (j *TransactionExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting transaction expiry job", zap.Duration("interval", j.interval), zap.Int("batch", j.batch))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Transaction expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Transaction expiry job stopped")
			return
		case <-ticker.C:
			j.processExpired(ctx)
		}
	}
}

func (j *TransactionExpiryJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *TransactionExpiryJob) processExpired(ctx context.Context) {
	for round := 0; round < maxRoundsPerTick; round++ {
		n, err := j.sweeper.ExpireStale(ctx, j.now(), j.batch)
		if err != nil {
			logger.Error(ctx, "Error expiring stale transactions", zap.Error(err))
			return
		}
		if n < j.batch {
			return
		}
	}
}
