package queue

import (
	"context"
	"sync"

	"careai/models"
)

// MemoryRepository is an in-process Repository used by tests and by
// single-machine development where both sides share one process.
type MemoryRepository struct {
	mu   sync.Mutex
	reqs []models.HandoffRequest

	// FailReads/FailWrites force store errors for failure-path tests.
	FailReads  error
	FailWrites error
}

func NewMemoryRepo() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Load(ctx context.Context) ([]models.HandoffRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	out := make([]models.HandoffRequest, len(m.reqs))
	copy(out, m.reqs)
	return out, nil
}

func (m *MemoryRepository) Save(ctx context.Context, reqs []models.HandoffRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.reqs = make([]models.HandoffRequest, len(reqs))
	copy(m.reqs, reqs)
	return nil
}

func (m *MemoryRepository) Append(ctx context.Context, req models.HandoffRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.reqs = append(m.reqs, req)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*models.HandoffRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	for i := range m.reqs {
		if m.reqs[i].ID == id {
			cp := m.reqs[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) CompareAndSwap(ctx context.Context, id string, expected models.HandoffStatus, mutate Mutation) (*models.HandoffRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return nil, m.FailWrites
	}
	for i := range m.reqs {
		if m.reqs[i].ID != id {
			continue
		}
		if m.reqs[i].Status != expected {
			return nil, ErrConflict
		}
		if err := mutate(&m.reqs[i]); err != nil {
			return nil, err
		}
		cp := m.reqs[i]
		return &cp, nil
	}
	return nil, ErrNotFound
}
