package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vanshika/algopay/backend/internal/domain"
	"github.com/vanshika/algopay/backend/internal/gateway"
	"github.com/vanshika/algopay/backend/internal/ledger"
)

func seedPending(store *ledger.MemoryStore, txID string) {
	store.Seed(domain.TransactionRecord{
		TxID:      txID,
		Sender:    senderAddr,
		Recipient: recipientAddr,
		Amount:    2500,
		Status:    domain.StatusPending,
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestReconcile_Confirmed(t *testing.T) {
	gw := gateway.NewMemoryClient().
		PushOutcome(gateway.Outcome{State: gateway.OutcomeConfirmed, ConfirmedRound: 500})
	store := ledger.NewMemoryStore()
	seedPending(store, "TX123")

	rec := NewReconciler(gw, store, testLogger())
	record, err := rec.Reconcile(context.Background(), "TX123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", record.Status)
	}
	if record.ConfirmedRound != 500 {
		t.Fatalf("expected round 500, got %d", record.ConfirmedRound)
	}
}

func TestReconcile_Rejected(t *testing.T) {
	gw := gateway.NewMemoryClient().
		PushOutcome(gateway.Outcome{State: gateway.OutcomeRejected, Reason: "overspend"})
	store := ledger.NewMemoryStore()
	seedPending(store, "TX123")

	rec := NewReconciler(gw, store, testLogger())
	record, err := rec.Reconcile(context.Background(), "TX123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", record.Status)
	}
	if record.ConfirmedRound != 0 {
		t.Fatalf("failed record must carry no round, got %d", record.ConfirmedRound)
	}
}

func TestReconcile_UnknownTransaction(t *testing.T) {
	gw := gateway.NewMemoryClient()
	rec := NewReconciler(gw, ledger.NewMemoryStore(), testLogger())

	_, err := rec.Reconcile(context.Background(), "TX999")
	if !errors.Is(err, domain.ErrUnknownTransaction) {
		t.Fatalf("expected ErrUnknownTransaction, got %v", err)
	}
	if gw.OutcomeCalls() != 0 {
		t.Fatal("missing local record must not trigger a network query")
	}
}

func TestReconcile_TerminalShortCircuit(t *testing.T) {
	gw := gateway.NewMemoryClient()
	store := ledger.NewMemoryStore()
	store.Seed(domain.TransactionRecord{
		TxID:           "TX123",
		Sender:         senderAddr,
		Recipient:      recipientAddr,
		Amount:         2500,
		Status:         domain.StatusConfirmed,
		ConfirmedRound: 500,
		CreatedAt:      time.Now().UTC(),
	})

	rec := NewReconciler(gw, store, testLogger())
	record, err := rec.Reconcile(context.Background(), "TX123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gw.OutcomeCalls() != 0 {
		t.Fatal("terminal record must not trigger a network query")
	}
	if record.Status != domain.StatusConfirmed || record.ConfirmedRound != 500 {
		t.Fatalf("terminal record must be returned unchanged: %+v", record)
	}
}

func TestReconcile_NetworkErrorLeavesRecordUntouched(t *testing.T) {
	gw := gateway.NewMemoryClient().WithOutcomeError(domain.ErrNetworkUnavailable)
	store := ledger.NewMemoryStore()
	seedPending(store, "TX123")

	rec := NewReconciler(gw, store, testLogger())
	record, err := rec.Reconcile(context.Background(), "TX123")
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
	if record.Status != domain.StatusPending {
		t.Fatalf("soft failure must return the prior record, got %+v", record)
	}

	stored, findErr := store.FindByID(context.Background(), "TX123")
	if findErr != nil {
		t.Fatalf("expected record, got %v", findErr)
	}
	if stored.Status != domain.StatusPending {
		t.Fatalf("network error must not change the stored status, got %s", stored.Status)
	}
}

func TestReconcile_NotFoundOutcomeStaysPending(t *testing.T) {
	gw := gateway.NewMemoryClient().
		PushOutcome(gateway.Outcome{State: gateway.OutcomeNotFound})
	store := ledger.NewMemoryStore()
	seedPending(store, "TX123")

	rec := NewReconciler(gw, store, testLogger())
	record, err := rec.Reconcile(context.Background(), "TX123")
	if err != nil {
		t.Fatalf("not-found is not a failure, got %v", err)
	}
	if record.Status != domain.StatusPending {
		t.Fatalf("not-found must leave the record pending, got %s", record.Status)
	}
}

func TestReconcile_ConcurrentSameIdentifier(t *testing.T) {
	gw := gateway.NewMemoryClient().
		PushOutcome(gateway.Outcome{State: gateway.OutcomeConfirmed, ConfirmedRound: 500}).
		PushOutcome(gateway.Outcome{State: gateway.OutcomeConfirmed, ConfirmedRound: 500})
	store := ledger.NewMemoryStore()
	seedPending(store, "TX123")

	rec := NewReconciler(gw, store, testLogger())

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := rec.Reconcile(context.Background(), "TX123")
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent reconciliation failed: %v", err)
		}
	}

	record, err := store.FindByID(context.Background(), "TX123")
	if err != nil {
		t.Fatalf("expected record, got %v", err)
	}
	if record.Status != domain.StatusConfirmed || record.ConfirmedRound != 500 {
		t.Fatalf("expected converged confirmed record, got %+v", record)
	}
	// The second reconciliation should have short-circuited on the
	// already-terminal record.
	if gw.OutcomeCalls() > 1 {
		t.Fatalf("expected at most one outcome query, got %d", gw.OutcomeCalls())
	}
}

func TestPoller_SweepConfirmsPendingBatch(t *testing.T) {
	gw := gateway.NewMemoryClient().
		PushOutcome(gateway.Outcome{State: gateway.OutcomeConfirmed, ConfirmedRound: 700}).
		PushOutcome(gateway.Outcome{State: gateway.OutcomeConfirmed, ConfirmedRound: 700})
	store := ledger.NewMemoryStore()
	seedPending(store, "TX1")
	seedPending(store, "TX2")

	rec := NewReconciler(gw, store, testLogger())
	poller := NewPoller(rec, store, time.Second, 10, 2, testLogger())
	poller.Sweep(context.Background())

	for _, txID := range []string{"TX1", "TX2"} {
		record, err := store.FindByID(context.Background(), txID)
		if err != nil {
			t.Fatalf("expected record %s, got %v", txID, err)
		}
		if record.Status != domain.StatusConfirmed {
			t.Fatalf("expected %s confirmed, got %s", txID, record.Status)
		}
	}
}
