package bookingrequest

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Expirer periodically flips overdue booking requests to expired.
// Individual reads already expire lazily; the sweep catches requests
// nobody looks at again.
type Expirer struct {
	service  Service
	interval time.Duration
	logger   *zap.Logger
}

func NewExpirer(service Service, interval time.Duration, logger *zap.Logger) *Expirer {
	return &Expirer{service: service, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (e *Expirer) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("request expirer shutting down")
			return
		case <-ticker.C:
			if _, err := e.service.ExpireOverdue(ctx); err != nil {
				e.logger.Error("request expiry sweep failed", zap.Error(err))
			}
		}
	}
}
