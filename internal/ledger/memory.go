// Package ledger stores increment plans by token so that a retried increment
// resumes the original plan instead of counting the three-gram twice.
package ledger

import (
	"context"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
)

// Memory is a process-local ledger. Plans never expire.
type Memory struct {
	mu    sync.Mutex
	plans map[string]projection.Plan
}

func NewMemory() *Memory {
	return &Memory{plans: make(map[string]projection.Plan)}
}

func (m *Memory) Load(_ context.Context, token string) (projection.Plan, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[token]
	if !ok {
		return projection.Plan{}, false, nil
	}
	return clonePlan(plan), true, nil
}

func (m *Memory) Begin(_ context.Context, token string, plan projection.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[token] = clonePlan(plan)
	return nil
}

func (m *Memory) MarkApplied(_ context.Context, token string, p projection.Projection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[token]
	if !ok {
		return nil
	}
	plan.Applied[p] = true
	return nil
}

func clonePlan(plan projection.Plan) projection.Plan {
	applied := make(map[projection.Projection]bool, len(plan.Applied))
	for p, ok := range plan.Applied {
		applied[p] = ok
	}
	plan.Applied = applied
	return plan
}
