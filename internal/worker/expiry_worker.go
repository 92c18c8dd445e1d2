package worker

import (
	"context"
	"log/slog"
	"time"

	"photomart/internal/service"
)

// ExpiryWorker reaps pending orders that never settled, including orphans
// left behind by failed checkout-preference creation.
type ExpiryWorker struct {
	orders     *service.OrderService
	interval   time.Duration
	pendingTTL time.Duration
}

func NewExpiryWorker(orders *service.OrderService) *ExpiryWorker {
	return &ExpiryWorker{
		orders:     orders,
		interval:   10 * time.Minute,
		pendingTTL: 24 * time.Hour,
	}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	slog.Info("starting order expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("order expiry worker stopped")
			return
		case <-ticker.C:
			n, err := w.orders.ExpireStalePending(ctx, w.pendingTTL)
			if err != nil {
				slog.Error("expiring stale orders failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired stale pending orders", "count", n)
			}
		}
	}
}
