package service

import (
	"context"
	"log/slog"
	"time"
)

const overdueBatchSize = 100

type idempotencyCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

type overdueRefresher interface {
	RefreshOverdue(ctx context.Context, limit int) (int, error)
}

// Housekeeper runs the periodic maintenance the request path does not: it
// expires idempotency entries and moves past-due invoices to OVERDUE.
type Housekeeper struct {
	idempotency idempotencyCleaner
	invoices    overdueRefresher
	logger      *slog.Logger
	interval    time.Duration
}

func NewHousekeeper(idempotency idempotencyCleaner, invoices overdueRefresher, logger *slog.Logger, interval time.Duration) *Housekeeper {
	return &Housekeeper{
		idempotency: idempotency,
		invoices:    invoices,
		logger:      logger,
		interval:    interval,
	}
}

func (h *Housekeeper) Start(ctx context.Context) {
	h.logger.Info("housekeeper started", "interval", h.interval)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("housekeeper stopped")
			return
		case <-ticker.C:
			h.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single maintenance pass. Each task is independent; a
// failure in one is logged and does not skip the other.
func (h *Housekeeper) RunOnce(ctx context.Context) {
	if n, err := h.idempotency.CleanExpired(ctx); err != nil {
		h.logger.Error("failed to clean expired idempotency entries", "error", err)
	} else if n > 0 {
		h.logger.Info("expired idempotency entries removed", "count", n)
	}

	// Drain in batches; a full batch means more may be waiting.
	for {
		changed, err := h.invoices.RefreshOverdue(ctx, overdueBatchSize)
		if err != nil {
			h.logger.Error("failed to refresh overdue invoices", "error", err)
			return
		}
		if changed > 0 {
			h.logger.Info("invoices marked overdue", "count", changed)
		}
		if changed < overdueBatchSize || ctx.Err() != nil {
			return
		}
	}
}
