package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vanshika/algopay/backend/internal/domain"
)

// MemoryStore is an in-memory Store implementation used for unit testing
// callers without a running database. It mirrors the Mongo store's
// transition semantics.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]domain.TransactionRecord
	insertErr error
	findErr   error
	updateErr error
	listErr   error
}

// NewMemoryStore instantiates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.TransactionRecord)}
}

// WithInsertError forces Insert to fail.
func (s *MemoryStore) WithInsertError(err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
	return s
}

// WithFindError forces FindByID to fail.
func (s *MemoryStore) WithFindError(err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErr = err
	return s
}

// WithListError forces ListRecent and ListPending to fail.
func (s *MemoryStore) WithListError(err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
	return s
}

// WithUpdateError forces UpdateTerminalStatus to fail.
func (s *MemoryStore) WithUpdateError(err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
	return s
}

// Seed stores a record directly, bypassing Insert's error injection.
func (s *MemoryStore) Seed(record domain.TransactionRecord) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.TxID] = record
	return s
}

func (s *MemoryStore) Insert(_ context.Context, record domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}
	if _, exists := s.records[record.TxID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateIdentifier, record.TxID)
	}
	s.records[record.TxID] = record
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, txID string) (domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return domain.TransactionRecord{}, s.findErr
	}
	record, ok := s.records[txID]
	if !ok {
		return domain.TransactionRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, txID)
	}
	return record, nil
}

func (s *MemoryStore) UpdateTerminalStatus(_ context.Context, txID string, status domain.Status, confirmedRound uint64) error {
	if err := validateTerminal(status, confirmedRound); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return s.updateErr
	}
	record, ok := s.records[txID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, txID)
	}
	if record.Status != domain.StatusPending {
		if record.Status == status && (status != domain.StatusConfirmed || record.ConfirmedRound == confirmedRound) {
			return nil
		}
		return fmt.Errorf("%w: %s is already %s", domain.ErrInvalidTransition, txID, record.Status)
	}

	record.Status = status
	if status == domain.StatusConfirmed {
		record.ConfirmedRound = confirmedRound
	}
	s.records[txID] = record
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]domain.TransactionRecord, error) {
	return s.snapshot(limit, nil, func(a, b domain.TransactionRecord) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]domain.TransactionRecord, error) {
	pending := func(r domain.TransactionRecord) bool { return r.Status == domain.StatusPending }
	return s.snapshot(limit, pending, func(a, b domain.TransactionRecord) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (s *MemoryStore) snapshot(limit int, keep func(domain.TransactionRecord) bool, less func(a, b domain.TransactionRecord) bool) ([]domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	records := make([]domain.TransactionRecord, 0, len(s.records))
	for _, record := range s.records {
		if keep == nil || keep(record) {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return less(records[i], records[j]) })

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
