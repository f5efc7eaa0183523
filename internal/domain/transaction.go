package domain

import "time"

// AddressLength is the length of an Algorand address string.
const AddressLength = 58

// Status tracks the lifecycle of a submitted transfer. Transitions are
// monotonic: pending may become confirmed or failed, never the reverse.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further status transition is possible.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// TransferRequest carries a caller-supplied payment order. The recovery
// phrase is a secret consumed during signing and must never be persisted
// or logged.
type TransferRequest struct {
	Sender         string
	Recipient      string
	Amount         int64
	RecoveryPhrase string
	Note           string
}

// TransactionRecord is the durable record of a submitted transfer. The
// network-assigned transaction identifier is the primary key and is
// immutable once assigned. ConfirmedRound is only meaningful when the
// status is confirmed.
type TransactionRecord struct {
	TxID           string
	Sender         string
	Recipient      string
	Amount         uint64
	Note           string
	Status         Status
	ConfirmedRound uint64
	CreatedAt      time.Time
}
