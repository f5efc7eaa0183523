package gateway

import (
	"context"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// MemoryClient is an in-memory implementation of the Client interface used
// for unit testing callers without a running node. Every call is counted
// so tests can assert which network round-trips happened.
type MemoryClient struct {
	mu sync.Mutex

	connectivityErr error
	paramsErr       error
	params          types.SuggestedParams
	submitErr       error
	submitTxID      string
	outcomeErr      error
	outcomes        []Outcome

	connectivityCalls int
	paramsCalls       int
	submitCalls       int
	outcomeCalls      int
	submitted         [][]byte
	queried           []string
}

// NewMemoryClient instantiates the fake with a pending default outcome.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{submitTxID: "TX123"}
}

// WithConnectivityError forces CheckConnectivity to fail.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivityErr = err
	return m
}

// WithParamsError forces SuggestedParams to fail.
func (m *MemoryClient) WithParamsError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paramsErr = err
	return m
}

// WithSubmitError forces SubmitRawTransaction to fail.
func (m *MemoryClient) WithSubmitError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
	return m
}

// WithSubmitTxID sets the identifier returned on successful submission.
func (m *MemoryClient) WithSubmitTxID(txID string) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitTxID = txID
	return m
}

// WithOutcomeError forces QueryOutcome to fail.
func (m *MemoryClient) WithOutcomeError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomeErr = err
	return m
}

// PushOutcome appends an outcome returned by the next QueryOutcome call.
func (m *MemoryClient) PushOutcome(o Outcome) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
	return m
}

func (m *MemoryClient) CheckConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivityCalls++
	return m.connectivityErr
}

func (m *MemoryClient) SuggestedParams(context.Context) (types.SuggestedParams, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paramsCalls++
	if m.paramsErr != nil {
		return types.SuggestedParams{}, m.paramsErr
	}
	return m.params, nil
}

func (m *MemoryClient) SubmitRawTransaction(_ context.Context, signed []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitted = append(m.submitted, append([]byte(nil), signed...))
	return m.submitTxID, nil
}

func (m *MemoryClient) QueryOutcome(_ context.Context, txID string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomeCalls++
	m.queried = append(m.queried, txID)
	if m.outcomeErr != nil {
		return Outcome{}, m.outcomeErr
	}
	if len(m.outcomes) == 0 {
		return Outcome{State: OutcomePending}, nil
	}
	o := m.outcomes[0]
	m.outcomes = m.outcomes[1:]
	return o, nil
}

// ConnectivityCalls returns how many liveness probes were made.
func (m *MemoryClient) ConnectivityCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivityCalls
}

// ParamsCalls returns how many parameter fetches were made.
func (m *MemoryClient) ParamsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paramsCalls
}

// SubmitCalls returns how many submissions were attempted.
func (m *MemoryClient) SubmitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitCalls
}

// OutcomeCalls returns how many outcome queries were made.
func (m *MemoryClient) OutcomeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomeCalls
}

// Queried returns a snapshot of queried identifiers.
func (m *MemoryClient) Queried() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queried...)
}
