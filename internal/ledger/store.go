// Package ledger is the application's own durable record of transaction
// intents, distinct from the consensus network's ledger. It exclusively
// owns TransactionRecord storage.
package ledger

import (
	"context"
	"fmt"

	"github.com/vanshika/algopay/backend/internal/domain"
)

// Store is the storage contract for transaction records. The transaction
// identifier is the unique, immutable key.
type Store interface {
	// Insert persists a new record. Inserting an identifier that already
	// exists fails with domain.ErrDuplicateIdentifier and leaves the
	// existing record untouched.
	Insert(ctx context.Context, record domain.TransactionRecord) error

	// FindByID returns the record for the identifier, or
	// domain.ErrNotFound.
	FindByID(ctx context.Context, txID string) (domain.TransactionRecord, error)

	// UpdateTerminalStatus moves a pending record to confirmed or failed.
	// The transition is conditional on the current status being pending,
	// so it is applied at most once under concurrent attempts. Repeating
	// an identical terminal write is a no-op; writing a different terminal
	// status over a terminal record fails with domain.ErrInvalidTransition.
	UpdateTerminalStatus(ctx context.Context, txID string, status domain.Status, confirmedRound uint64) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.TransactionRecord, error)

	// ListPending returns up to limit records still awaiting an outcome,
	// oldest first.
	ListPending(ctx context.Context, limit int) ([]domain.TransactionRecord, error)
}

func validateTerminal(status domain.Status, confirmedRound uint64) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: %q is not a terminal status", domain.ErrInvalidTransition, status)
	}
	if status == domain.StatusFailed && confirmedRound != 0 {
		return fmt.Errorf("%w: failed records carry no confirmation round", domain.ErrInvalidTransition)
	}
	return nil
}
