package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential indicates the recovery phrase could not be
	// parsed into a keypair.
	ErrInvalidCredential = errors.New("invalid recovery phrase")

	// ErrSenderMismatch indicates the address derived from the recovery
	// phrase does not match the claimed sender.
	ErrSenderMismatch = errors.New("sender address does not match recovery phrase")

	// ErrNetworkUnavailable indicates the consensus network could not be
	// reached. Callers may retry the whole operation.
	ErrNetworkUnavailable = errors.New("consensus network unavailable")

	// ErrRejectedByNetwork indicates the network explicitly refused the
	// transaction. Retrying with the same parameters will not succeed.
	ErrRejectedByNetwork = errors.New("transaction rejected by network")

	// ErrDuplicateIdentifier indicates an insert for an identifier that
	// already exists in the ledger.
	ErrDuplicateIdentifier = errors.New("transaction identifier already recorded")

	// ErrInvalidTransition indicates an attempt to move a record out of a
	// terminal status, or to overwrite one terminal status with another.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound indicates a ledger lookup for an unknown identifier.
	ErrNotFound = errors.New("transaction record not found")

	// ErrUnknownTransaction indicates a reconciliation target that has no
	// local record.
	ErrUnknownTransaction = errors.New("unknown transaction")
)

// ValidationError describes a structurally malformed transfer request.
// Requests failing validation never reach the credential step or the
// network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
