package server

import (
	"context"

	"github.com/edukit/coachai-go/internal/provider"
	"github.com/edukit/coachai-go/internal/rag"
)

// QdrantPinger probes the vector store using Qdrant's native health RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// store is the Qdrant-backed vector store to probe.
	store *rag.QdrantStore
}

// NewQdrantPinger constructs a QdrantPinger for the given store.
func NewQdrantPinger(store *rag.QdrantStore) *QdrantPinger {
	return &QdrantPinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant health RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return errPing(p.Name(), err)
	}
	return nil
}

// ModelPinger probes an LLM backend through its token-free health check.
// Backends without such a check get no pinger at all; readiness should never
// burn model tokens.
type ModelPinger struct {
	// check is the zero-cost reachability probe.
	check provider.HealthCheckConfig
	// name identifies the backend in readiness responses (e.g. "openai").
	name string
}

// NewModelPinger constructs a ModelPinger. It returns nil when check is nil
// so callers can append the result conditionally.
func NewModelPinger(check provider.HealthCheckConfig, name string) *ModelPinger {
	if check == nil {
		return nil
	}
	return &ModelPinger{check: check, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *ModelPinger) Name() string { return p.name }

// Ping delegates to the backend's health check.
func (p *ModelPinger) Ping(ctx context.Context) error {
	if err := p.check.HealthCheck(ctx); err != nil {
		return errPing(p.name, err)
	}
	return nil
}
