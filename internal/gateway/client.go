package gateway

import (
	"context"
	"errors"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Client is the contract between the application and the consensus
// network. Implementations hold no mutable request-time state and perform
// no retries; retry policy belongs to callers.
type Client interface {
	// CheckConnectivity probes node liveness. Callers must treat failure
	// as fatal for the in-flight operation.
	CheckConnectivity(ctx context.Context) error

	// SuggestedParams fetches fresh transaction parameters. Results must
	// not be cached across submission attempts; validity windows expire.
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)

	// SubmitRawTransaction broadcasts signed transaction bytes and returns
	// the network-assigned identifier. Success means the transaction
	// entered the pending pool, not that it is final.
	SubmitRawTransaction(ctx context.Context, signed []byte) (string, error)

	// QueryOutcome reports the network's current view of a transaction.
	// A not-found outcome is not a rejection: the identifier may simply
	// not have propagated yet.
	QueryOutcome(ctx context.Context, txID string) (Outcome, error)
}

// OutcomeState enumerates the network's possible answers for a
// transaction identifier.
type OutcomeState int

const (
	OutcomePending OutcomeState = iota
	OutcomeConfirmed
	OutcomeRejected
	OutcomeNotFound
)

// Outcome is the network's authoritative view of a transaction.
// ConfirmedRound is set only for confirmed outcomes, Reason only for
// rejected ones.
type Outcome struct {
	State          OutcomeState
	ConfirmedRound uint64
	Reason         string
}

// ErrMissingAddress indicates the node address is not configured.
var ErrMissingAddress = errors.New("algod address is required")
