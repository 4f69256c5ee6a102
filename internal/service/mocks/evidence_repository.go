package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/pkg/models"
)

// MockEvidenceRepository is a mock implementation of EvidenceRepository.
type MockEvidenceRepository struct {
	mu       sync.RWMutex
	evidence map[uuid.UUID]models.Evidence
	order    []uuid.UUID

	// Control behavior for testing
	CreateEvidenceFunc     func(ctx context.Context, ev models.Evidence) (*models.Evidence, error)
	GetEvidenceFunc        func(ctx context.Context, id uuid.UUID) (*models.Evidence, error)
	ListEvidenceByPlanFunc func(ctx context.Context, planID uuid.UUID) ([]models.Evidence, error)
	UpdateEvidenceFunc     func(ctx context.Context, ev models.Evidence) (*models.Evidence, error)
}

// NewMockEvidenceRepository creates a new MockEvidenceRepository.
func NewMockEvidenceRepository() *MockEvidenceRepository {
	return &MockEvidenceRepository{
		evidence: make(map[uuid.UUID]models.Evidence),
	}
}

// CreateEvidence stores a new evidence record.
func (m *MockEvidenceRepository) CreateEvidence(ctx context.Context, ev models.Evidence) (*models.Evidence, error) {
	if m.CreateEvidenceFunc != nil {
		return m.CreateEvidenceFunc(ctx, ev)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	m.evidence[ev.ID] = ev
	m.order = append(m.order, ev.ID)
	return &ev, nil
}

// GetEvidence returns an evidence record by ID.
func (m *MockEvidenceRepository) GetEvidence(ctx context.Context, id uuid.UUID) (*models.Evidence, error) {
	if m.GetEvidenceFunc != nil {
		return m.GetEvidenceFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if ev, ok := m.evidence[id]; ok {
		return &ev, nil
	}
	return nil, service.ErrNotFound
}

// ListEvidenceByPlan returns evidence attached to a plan in insertion order.
func (m *MockEvidenceRepository) ListEvidenceByPlan(ctx context.Context, planID uuid.UUID) ([]models.Evidence, error) {
	if m.ListEvidenceByPlanFunc != nil {
		return m.ListEvidenceByPlanFunc(ctx, planID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Evidence
	for _, id := range m.order {
		if ev := m.evidence[id]; ev.ActionPlanID == planID {
			result = append(result, ev)
		}
	}
	return result, nil
}

// UpdateEvidence replaces a stored evidence record.
func (m *MockEvidenceRepository) UpdateEvidence(ctx context.Context, ev models.Evidence) (*models.Evidence, error) {
	if m.UpdateEvidenceFunc != nil {
		return m.UpdateEvidenceFunc(ctx, ev)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.evidence[ev.ID]; !ok {
		return nil, service.ErrNotFound
	}
	m.evidence[ev.ID] = ev
	return &ev, nil
}

// AddEvidence adds an evidence record directly to the mock (for test setup).
func (m *MockEvidenceRepository) AddEvidence(ev models.Evidence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.evidence[ev.ID]; !exists {
		m.order = append(m.order, ev.ID)
	}
	m.evidence[ev.ID] = ev
}

// Reset clears all data from the mock.
func (m *MockEvidenceRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence = make(map[uuid.UUID]models.Evidence)
	m.order = nil
}
