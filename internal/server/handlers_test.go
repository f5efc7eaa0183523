package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vanshika/algopay/backend/internal/domain"
	"github.com/vanshika/algopay/backend/internal/gateway"
	"github.com/vanshika/algopay/backend/internal/ledger"
	"github.com/vanshika/algopay/backend/internal/service"
	"github.com/vanshika/algopay/backend/internal/wallet"
)

var (
	testSender    = strings.Repeat("A", domain.AddressLength)
	testRecipient = strings.Repeat("B", domain.AddressLength)
)

type stubResolver struct {
	kp wallet.Keypair
}

func (s stubResolver) Resolve(string) (wallet.Keypair, error) {
	return s.kp, nil
}

type stubSigner struct{}

func (stubSigner) SignPayment(wallet.Keypair, wallet.Payment) ([]byte, error) {
	return []byte("signed"), nil
}

func newTestHandlers(gw gateway.Client, store ledger.Store) *APIHandlers {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	submitter := service.NewSubmitter(gw, store, stubResolver{kp: wallet.Keypair{Address: testSender}}, stubSigner{}, logger)
	reconciler := service.NewReconciler(gw, store, logger)
	return NewAPIHandlers(logger, submitter, reconciler, store)
}

func TestSubmitTransferEndpoint(t *testing.T) {
	gw := gateway.NewMemoryClient().WithSubmitTxID("TX123")
	store := ledger.NewMemoryStore()
	handlers := newTestHandlers(gw, store)

	body, _ := json.Marshal(map[string]any{
		"from":     testSender,
		"to":       testRecipient,
		"amount":   2500,
		"mnemonic": "abandon abandon abandon",
		"note":     "rent",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handlers.handleTransfers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.TxID != "TX123" || !resp.Recorded {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSubmitTransferEndpoint_ValidationFailure(t *testing.T) {
	gw := gateway.NewMemoryClient()
	handlers := newTestHandlers(gw, ledger.NewMemoryStore())

	body, _ := json.Marshal(map[string]any{
		"from":     strings.Repeat("A", domain.AddressLength-1),
		"to":       testRecipient,
		"amount":   2500,
		"mnemonic": "abandon abandon abandon",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handlers.handleTransfers(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if gw.SubmitCalls() != 0 {
		t.Fatal("validation failure must not reach the network")
	}
}

func TestSubmitTransferEndpoint_NetworkUnavailable(t *testing.T) {
	gw := gateway.NewMemoryClient().WithConnectivityError(domain.ErrNetworkUnavailable)
	handlers := newTestHandlers(gw, ledger.NewMemoryStore())

	body, _ := json.Marshal(map[string]any{
		"from":     testSender,
		"to":       testRecipient,
		"amount":   2500,
		"mnemonic": "abandon abandon abandon",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handlers.handleTransfers(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestTransferStatusEndpoint_Confirmed(t *testing.T) {
	gw := gateway.NewMemoryClient().
		PushOutcome(gateway.Outcome{State: gateway.OutcomeConfirmed, ConfirmedRound: 500})
	store := ledger.NewMemoryStore()
	store.Seed(domain.TransactionRecord{
		TxID:      "TX123",
		Sender:    testSender,
		Recipient: testRecipient,
		Amount:    2500,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	handlers := newTestHandlers(gw, store)

	req := httptest.NewRequest(http.MethodGet, "/api/transfers/TX123", nil)
	rec := httptest.NewRecorder()

	handlers.handleTransferStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.StatusConfirmed) || resp.ConfirmedRound != 500 {
		t.Fatalf("unexpected record: %+v", resp)
	}
}

func TestTransferStatusEndpoint_NotFound(t *testing.T) {
	gw := gateway.NewMemoryClient()
	handlers := newTestHandlers(gw, ledger.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/transfers/TX999", nil)
	rec := httptest.NewRecorder()

	handlers.handleTransferStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if gw.OutcomeCalls() != 0 {
		t.Fatal("unknown transaction must not trigger a network query")
	}
}

func TestTransferStatusEndpoint_SoftNetworkFailure(t *testing.T) {
	gw := gateway.NewMemoryClient().WithOutcomeError(domain.ErrNetworkUnavailable)
	store := ledger.NewMemoryStore()
	store.Seed(domain.TransactionRecord{
		TxID:      "TX123",
		Sender:    testSender,
		Recipient: testRecipient,
		Amount:    2500,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	handlers := newTestHandlers(gw, store)

	req := httptest.NewRequest(http.MethodGet, "/api/transfers/TX123", nil)
	rec := httptest.NewRecorder()

	handlers.handleTransferStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected degraded 200, got %d", rec.Code)
	}

	var resp recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.StatusPending) {
		t.Fatalf("expected last known pending status, got %s", resp.Status)
	}
}

func TestListTransfersEndpoint(t *testing.T) {
	store := ledger.NewMemoryStore()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Seed(domain.TransactionRecord{TxID: "TX1", Sender: testSender, Recipient: testRecipient, Amount: 1, Status: domain.StatusPending, CreatedAt: base})
	store.Seed(domain.TransactionRecord{TxID: "TX2", Sender: testSender, Recipient: testRecipient, Amount: 2, Status: domain.StatusPending, CreatedAt: base.Add(time.Minute)})
	handlers := newTestHandlers(gateway.NewMemoryClient(), store)

	req := httptest.NewRequest(http.MethodGet, "/api/transfers?limit=10", nil)
	rec := httptest.NewRecorder()

	handlers.handleTransfers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].TxID != "TX2" {
		t.Fatalf("expected newest first, got %s", resp.Items[0].TxID)
	}
}
