// Package wallet derives signing keypairs from recovery phrases and signs
// payment transactions. Key material is scoped to a single request: callers
// must Zero the keypair on every exit path.
package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/vanshika/algopay/backend/internal/domain"
)

// Keypair holds a derived signing key and its canonical address. The
// private half is deliberately unexported.
type Keypair struct {
	Address    string
	privateKey ed25519.PrivateKey
}

// Owns reports whether the keypair controls the claimed address.
func (kp Keypair) Owns(address string) bool {
	return kp.Address == address
}

// Zero wipes the private key material in place.
func (kp *Keypair) Zero() {
	for i := range kp.privateKey {
		kp.privateKey[i] = 0
	}
	kp.privateKey = nil
}

// MnemonicResolver derives keypairs from 25-word recovery phrases.
type MnemonicResolver struct{}

// Resolve parses the recovery phrase and derives the matching keypair.
// A phrase that cannot be parsed yields domain.ErrInvalidCredential.
func (MnemonicResolver) Resolve(phrase string) (Keypair, error) {
	sk, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}

	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}

	return Keypair{
		Address:    account.Address.String(),
		privateKey: sk,
	}, nil
}

// Payment describes a single payment transaction to construct and sign.
// Amount is in microAlgos. Params must be freshly fetched; validity
// windows expire.
type Payment struct {
	Recipient string
	Amount    uint64
	Note      []byte
	Params    types.SuggestedParams
}

// PaymentSigner builds and signs payment transactions with the SDK.
type PaymentSigner struct{}

// SignPayment constructs a payment transaction from the keypair's address
// and signs it, returning the raw bytes ready for submission.
func (PaymentSigner) SignPayment(kp Keypair, p Payment) ([]byte, error) {
	txn, err := transaction.MakePaymentTxn(kp.Address, p.Recipient, p.Amount, p.Note, "", p.Params)
	if err != nil {
		return nil, fmt.Errorf("build payment transaction: %w", err)
	}

	_, signed, err := crypto.SignTransaction(kp.privateKey, txn)
	if err != nil {
		return nil, fmt.Errorf("sign payment transaction: %w", err)
	}

	return signed, nil
}
