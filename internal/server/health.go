package server

import (
	"context"

	"github.com/vanshika/algopay/backend/internal/gateway"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// NodeHealthService verifies consensus-node connectivity as part of
// health checks.
type NodeHealthService struct {
	Client gateway.Client
}

// Probe implements the HealthService interface.
func (s NodeHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.CheckConnectivity(ctx)
}

// Pinger is implemented by stores that can verify their database
// connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthService verifies ledger storage connectivity.
type StoreHealthService struct {
	Store Pinger
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Ping(ctx)
}

// MultiHealthService probes each member in order and reports the first
// failure.
type MultiHealthService []HealthService

// Probe implements the HealthService interface.
func (m MultiHealthService) Probe(ctx context.Context) error {
	for _, svc := range m {
		if svc == nil {
			continue
		}
		if err := svc.Probe(ctx); err != nil {
			return err
		}
	}
	return nil
}
