package cleanup

import (
	"context"
	"time"

	"github.com/Yaroher2442/FORTIFIED/internal/common/clock"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	"github.com/Yaroher2442/FORTIFIED/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner deletes token pairs whose access token expired more than retention
// ago. Those pairs can still be refreshed until then; afterwards the session
// is treated as abandoned.
type Pruner struct {
	store     ExpiredDeleter
	retention time.Duration
	clock     clock.Clock
	log       *logger.Logger
}

func NewPruner(store ExpiredDeleter, retention time.Duration, clock clock.Clock, log *logger.Logger) *Pruner {
	return &Pruner{
		store:     store,
		retention: retention,
		clock:     clock,
		log:       log,
	}
}

// RunOnce performs a single pruning pass.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().Add(-p.retention)

	deleted, err := p.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"action": "token_pair_cleanup_failed",
		}).Errorf("token pair cleanup failed: %v", err)
		return 0, err
	}

	if deleted > 0 {
		metrics.TokenPairsCleanupDeleted.Add(float64(deleted))
		p.log.WithFields(ctx, logger.Fields{
			"action":  "token_pair_cleanup",
			"deleted": deleted,
		}).Infof("token pair cleanup: deleted %d stale pairs", deleted)
	}
	return deleted, nil
}

// Start runs RunOnce every interval until ctx is done. A non-positive
// retention or interval disables pruning.
func (p *Pruner) Start(ctx context.Context, interval time.Duration) {
	if p.retention <= 0 || interval <= 0 {
		p.log.Infof("token pair cleanup disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.RunOnce(ctx)
		}
	}
}
