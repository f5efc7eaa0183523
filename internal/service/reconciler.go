package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vanshika/algopay/backend/internal/domain"
	"github.com/vanshika/algopay/backend/internal/gateway"
	"github.com/vanshika/algopay/backend/internal/ledger"
)

// Reconciler synchronizes local transaction records with the network's
// authoritative view. Reconciliations for the same identifier serialize
// against each other; different identifiers proceed independently.
type Reconciler struct {
	gateway gateway.Client
	ledger  ledger.Store
	logger  *slog.Logger
	locks   keyedMutex
}

// NewReconciler constructs a Reconciler with explicit dependencies.
func NewReconciler(gw gateway.Client, store ledger.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		gateway: gw,
		ledger:  store,
		logger:  logger,
	}
}

// Reconcile loads the record for txID and, if it is still pending, asks
// the network for its current outcome and applies any terminal
// transition. A network error is soft: the last known record is returned
// alongside the error and local state is left untouched.
func (r *Reconciler) Reconcile(ctx context.Context, txID string) (domain.TransactionRecord, error) {
	unlock := r.locks.lock(txID)
	defer unlock()

	record, err := r.ledger.FindByID(ctx, txID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TransactionRecord{}, fmt.Errorf("%w: %s", domain.ErrUnknownTransaction, txID)
		}
		return domain.TransactionRecord{}, err
	}

	// Terminal records never change again; skip the network round-trip.
	if record.Status.Terminal() {
		return record, nil
	}

	outcome, err := r.gateway.QueryOutcome(ctx, txID)
	if err != nil {
		return record, err
	}

	switch outcome.State {
	case gateway.OutcomeConfirmed:
		if err := r.ledger.UpdateTerminalStatus(ctx, txID, domain.StatusConfirmed, outcome.ConfirmedRound); err != nil {
			return record, err
		}
		r.logger.Info("transaction confirmed", "txId", txID, "round", outcome.ConfirmedRound)
	case gateway.OutcomeRejected:
		if err := r.ledger.UpdateTerminalStatus(ctx, txID, domain.StatusFailed, 0); err != nil {
			return record, err
		}
		r.logger.Info("transaction failed", "txId", txID, "reason", outcome.Reason)
	default:
		// Pending, or not yet propagated. Not a failure.
		return record, nil
	}

	return r.ledger.FindByID(ctx, txID)
}

// keyedMutex provides at-most-one in-flight critical section per key.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*lockEntry)
	}
	entry, ok := k.entries[key]
	if !ok {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
