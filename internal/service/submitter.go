package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/algopay/backend/internal/domain"
	"github.com/vanshika/algopay/backend/internal/gateway"
	"github.com/vanshika/algopay/backend/internal/ledger"
	"github.com/vanshika/algopay/backend/internal/wallet"
)

// CredentialResolver derives a signing keypair from a recovery phrase.
type CredentialResolver interface {
	Resolve(phrase string) (wallet.Keypair, error)
}

// PaymentSigner builds and signs a payment transaction.
type PaymentSigner interface {
	SignPayment(kp wallet.Keypair, p wallet.Payment) ([]byte, error)
}

// SubmissionResult reports a transfer the network accepted. Recorded is
// false when the transaction is in flight on-chain but the local ledger
// write failed; the caller should reconcile the identifier later.
type SubmissionResult struct {
	TxID     string
	Recorded bool
}

// Submitter orchestrates a single transfer submission: connectivity,
// validation, credentials, parameters, signing, broadcast, persistence.
type Submitter struct {
	gateway  gateway.Client
	ledger   ledger.Store
	resolver CredentialResolver
	signer   PaymentSigner
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewSubmitter constructs a Submitter with explicit dependencies.
func NewSubmitter(gw gateway.Client, store ledger.Store, resolver CredentialResolver, signer PaymentSigner, logger *slog.Logger) *Submitter {
	return &Submitter{
		gateway:  gw,
		ledger:   store,
		resolver: resolver,
		signer:   signer,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Submitter) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// SubmitTransfer runs the submission pipeline. Every failure before the
// broadcast step leaves no state behind; once the network accepts the
// transaction there is no rollback, only the persistence attempt.
func (s *Submitter) SubmitTransfer(ctx context.Context, req domain.TransferRequest) (SubmissionResult, error) {
	if err := s.gateway.CheckConnectivity(ctx); err != nil {
		return SubmissionResult{}, err
	}

	if err := validateRequest(req); err != nil {
		return SubmissionResult{}, err
	}

	kp, err := s.resolver.Resolve(req.RecoveryPhrase)
	if err != nil {
		return SubmissionResult{}, err
	}
	defer kp.Zero()

	if !kp.Owns(req.Sender) {
		return SubmissionResult{}, domain.ErrSenderMismatch
	}

	params, err := s.gateway.SuggestedParams(ctx)
	if err != nil {
		return SubmissionResult{}, err
	}

	var note []byte
	if req.Note != "" {
		note = []byte(req.Note)
	}
	signed, err := s.signer.SignPayment(kp, wallet.Payment{
		Recipient: req.Recipient,
		Amount:    uint64(req.Amount),
		Note:      note,
		Params:    params,
	})
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("sign transfer: %w", err)
	}

	txID, err := s.gateway.SubmitRawTransaction(ctx, signed)
	if err != nil {
		return SubmissionResult{}, err
	}

	record := domain.TransactionRecord{
		TxID:      txID,
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Amount:    uint64(req.Amount),
		Note:      req.Note,
		Status:    domain.StatusPending,
		CreatedAt: s.nowFn().UTC(),
	}
	if err := s.ledger.Insert(ctx, record); err != nil {
		// The transfer is already in flight on-chain; failing the caller
		// here would misreport the network's state. Surface the gap.
		s.logger.Warn("transaction submitted but not recorded",
			"txId", txID,
			"error", err,
		)
		return SubmissionResult{TxID: txID, Recorded: false}, nil
	}

	s.logger.Info("transaction submitted", "txId", txID, "sender", req.Sender)
	return SubmissionResult{TxID: txID, Recorded: true}, nil
}

func validateRequest(req domain.TransferRequest) error {
	if len(req.Sender) != domain.AddressLength {
		return &domain.ValidationError{Field: "from", Reason: fmt.Sprintf("address must be %d characters", domain.AddressLength)}
	}
	if len(req.Recipient) != domain.AddressLength {
		return &domain.ValidationError{Field: "to", Reason: fmt.Sprintf("address must be %d characters", domain.AddressLength)}
	}
	if req.Amount < 0 {
		return &domain.ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if req.RecoveryPhrase == "" {
		return &domain.ValidationError{Field: "mnemonic", Reason: "is required"}
	}
	return nil
}
