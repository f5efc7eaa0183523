package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vanshika/algopay/backend/internal/domain"
	"github.com/vanshika/algopay/backend/internal/ledger"
)

// Poller periodically reconciles pending transaction records against the
// network so confirmations land without waiting for a status request.
type Poller struct {
	reconciler *Reconciler
	ledger     ledger.Store
	interval   time.Duration
	batchSize  int
	workers    int
	logger     *slog.Logger
}

// NewPoller creates a Poller with the provided sweep interval and
// concurrency.
func NewPoller(reconciler *Reconciler, store ledger.Store, interval time.Duration, batchSize, workers int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if workers <= 0 {
		workers = 4
	}
	return &Poller{
		reconciler: reconciler,
		ledger:     store,
		interval:   interval,
		batchSize:  batchSize,
		workers:    workers,
		logger:     logger,
	}
}

// Run sweeps until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep reconciles one batch of pending records with a bounded worker
// pool.
func (p *Poller) Sweep(ctx context.Context) {
	records, err := p.ledger.ListPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to list pending transactions", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	idCh := make(chan string)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for txID := range idCh {
			if _, err := p.reconciler.Reconcile(ctx, txID); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				if errors.Is(err, domain.ErrNetworkUnavailable) {
					p.logger.Warn("reconciliation deferred", "txId", txID, "error", err)
					continue
				}
				p.logger.Error("reconciliation failed", "txId", txID, "error", err)
			}
		}
	}

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for _, record := range records {
		select {
		case idCh <- record.TxID:
		case <-ctx.Done():
			break Loop
		}
	}
	close(idCh)
	wg.Wait()
}
