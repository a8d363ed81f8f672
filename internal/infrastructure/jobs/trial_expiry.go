package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"accounts.backend/pkg/logger"
)

const (
	defaultTrialSweepInterval = time.Hour
	defaultTrialBatchSize     = 100
)

// TrialExpirer moves accounts whose trial ended out of the trial status
type TrialExpirer interface {
	ExpireTrials(ctx context.Context, limit int) (int, error)
}

// TrialExpiryJob periodically expires ended trials
type TrialExpiryJob struct {
	expirer  TrialExpirer
	interval time.Duration
	batch    int
	stop     chan struct{}
	stopOnce sync.Once
}

func NewTrialExpiryJob(expirer TrialExpirer, interval time.Duration, batch int) *TrialExpiryJob {
	if interval <= 0 {
		interval = defaultTrialSweepInterval
	}
	if batch <= 0 {
		batch = defaultTrialBatchSize
	}
	return &TrialExpiryJob{
		expirer:  expirer,
		interval: interval,
		batch:    batch,
		stop:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called
func (j *TrialExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting trial expiry job", zap.Duration("interval", j.interval), zap.Int("batch", j.batch))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Trial expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Trial expiry job stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *TrialExpiryJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

// sweep drains expired trials one batch at a time until a batch comes back short
func (j *TrialExpiryJob) sweep(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := j.expirer.ExpireTrials(ctx, j.batch)
		if err != nil {
			logger.Error(ctx, "Error expiring trials", zap.Error(err))
			break
		}
		total += n
		if n < j.batch {
			break
		}
	}

	if total > 0 {
		logger.Info(ctx, "Expired trials", zap.Int("count", total))
	}
	return total
}
