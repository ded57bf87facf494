package hold

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/pkg/metrics"
)

// Sweeper periodically flips stale active holds to expired. Expiry is
// already lazy-evaluated at every availability read; the sweep only keeps
// storage from accumulating rows that claim to be active forever.
type Sweeper struct {
	repo     Repository
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(repo Repository, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{repo: repo, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("hold sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.repo.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("hold sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		metrics.HoldsExpired.Add(float64(n))
		s.logger.Info("expired stale holds", zap.Int64("count", n))
	}
}
