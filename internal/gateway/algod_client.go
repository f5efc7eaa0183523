package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/vanshika/algopay/backend/internal/domain"
)

// Options configures the algod-backed gateway client.
type Options struct {
	// Address is the algod REST endpoint, e.g. https://testnet-api.algonode.cloud.
	Address string
	// Token is the API token; public nodes accept an empty token.
	Token  string
	Logger *slog.Logger
}

// NewAlgodClient builds a Client over the official algod REST client.
func NewAlgodClient(opts Options) (Client, error) {
	if opts.Address == "" {
		return nil, ErrMissingAddress
	}

	client, err := algod.MakeClient(opts.Address, opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create algod client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &algodClient{client: client, logger: logger}, nil
}

type algodClient struct {
	client *algod.Client
	logger *slog.Logger
}

func (c *algodClient) CheckConnectivity(ctx context.Context) error {
	status, err := c.client.Status().Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}

	c.logger.Debug("connected to algod node", "lastRound", status.LastRound)
	return nil
}

func (c *algodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	params, err := c.client.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}
	return params, nil
}

func (c *algodClient) SubmitRawTransaction(ctx context.Context, signed []byte) (string, error) {
	txID, err := c.client.SendRawTransaction(signed).Do(ctx)
	if err != nil {
		if isTransport(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
		}
		// The node answered; it refused the transaction.
		return "", fmt.Errorf("%w: %v", domain.ErrRejectedByNetwork, err)
	}
	return txID, nil
}

func (c *algodClient) QueryOutcome(ctx context.Context, txID string) (Outcome, error) {
	info, _, err := c.client.PendingTransactionInformation(txID).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return Outcome{State: OutcomeNotFound}, nil
		}
		return Outcome{}, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}

	switch {
	case info.ConfirmedRound > 0:
		return Outcome{State: OutcomeConfirmed, ConfirmedRound: info.ConfirmedRound}, nil
	case info.PoolError != "":
		return Outcome{State: OutcomeRejected, Reason: info.PoolError}, nil
	default:
		return Outcome{State: OutcomePending}, nil
	}
}

// isTransport distinguishes failures to reach the node from answers the
// node gave.
func isTransport(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// isNotFound matches the node's 404 for identifiers it has no knowledge
// of (dropped from the pool or never propagated).
func isNotFound(err error) bool {
	if isTransport(err) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "404") || strings.Contains(strings.ToLower(msg), "could not find")
}
