package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/pkg/models"
)

// MockPlanRepository is a mock implementation of PlanRepository.
type MockPlanRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]models.ActionPlan
	order []uuid.UUID

	// Control behavior for testing
	CreatePlanFunc  func(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error)
	UpsertPlansFunc func(ctx context.Context, plans []models.ActionPlan) error
	GetPlanFunc     func(ctx context.Context, id uuid.UUID) (*models.ActionPlan, error)
	ListPlansFunc   func(ctx context.Context, params service.ListPlansParams) ([]models.ActionPlan, error)
	UpdatePlanFunc  func(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error)
}

// NewMockPlanRepository creates a new MockPlanRepository.
func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		plans: make(map[uuid.UUID]models.ActionPlan),
	}
}

// CreatePlan stores a new action plan.
func (m *MockPlanRepository) CreatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error) {
	if m.CreatePlanFunc != nil {
		return m.CreatePlanFunc(ctx, plan)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	m.plans[plan.ID] = plan
	m.order = append(m.order, plan.ID)
	return &plan, nil
}

// UpsertPlans inserts or replaces a batch of plans by ID.
func (m *MockPlanRepository) UpsertPlans(ctx context.Context, plans []models.ActionPlan) error {
	if m.UpsertPlansFunc != nil {
		return m.UpsertPlansFunc(ctx, plans)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range plans {
		if _, exists := m.plans[p.ID]; !exists {
			m.order = append(m.order, p.ID)
		}
		m.plans[p.ID] = p
	}
	return nil
}

// GetPlan returns a plan by ID.
func (m *MockPlanRepository) GetPlan(ctx context.Context, id uuid.UUID) (*models.ActionPlan, error) {
	if m.GetPlanFunc != nil {
		return m.GetPlanFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.plans[id]; ok {
		return &p, nil
	}
	return nil, service.ErrNotFound
}

// ListPlans returns filtered plans in insertion order.
func (m *MockPlanRepository) ListPlans(ctx context.Context, params service.ListPlansParams) ([]models.ActionPlan, error) {
	if m.ListPlansFunc != nil {
		return m.ListPlansFunc(ctx, params)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.ActionPlan
	for _, id := range m.order {
		p := m.plans[id]
		if p.OrgID != params.OrgID {
			continue
		}
		if params.Framework != nil && p.Framework != *params.Framework {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		if params.Priority != nil && p.Priority != *params.Priority {
			continue
		}
		result = append(result, p)
	}

	start := int(params.Offset)
	if start >= len(result) {
		return []models.ActionPlan{}, nil
	}
	end := len(result)
	if params.Limit > 0 && start+int(params.Limit) < end {
		end = start + int(params.Limit)
	}
	return result[start:end], nil
}

// UpdatePlan replaces a stored plan.
func (m *MockPlanRepository) UpdatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error) {
	if m.UpdatePlanFunc != nil {
		return m.UpdatePlanFunc(ctx, plan)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[plan.ID]; !ok {
		return nil, service.ErrNotFound
	}
	m.plans[plan.ID] = plan
	return &plan, nil
}

// AddPlan adds a plan directly to the mock (for test setup).
func (m *MockPlanRepository) AddPlan(p models.ActionPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.plans[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	m.plans[p.ID] = p
}

// Count returns the number of stored plans.
func (m *MockPlanRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plans)
}

// Reset clears all data from the mock.
func (m *MockPlanRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = make(map[uuid.UUID]models.ActionPlan)
	m.order = nil
}
