// Package mocks provides in-memory repository implementations for tests.
package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"
)

// MockAssessmentRepository is a mock implementation of AssessmentRepository.
type MockAssessmentRepository struct {
	mu          sync.RWMutex
	assessments map[uuid.UUID]models.Assessment
	responses   map[uuid.UUID]map[string]maturity.Response

	// Control behavior for testing
	CreateAssessmentFunc       func(ctx context.Context, params service.CreateAssessmentParams) (*models.Assessment, error)
	GetAssessmentFunc          func(ctx context.Context, id uuid.UUID) (*models.Assessment, error)
	ListAssessmentsFunc        func(ctx context.Context, params service.ListAssessmentsParams) ([]models.Assessment, error)
	UpdateAssessmentStatusFunc func(ctx context.Context, id uuid.UUID, status models.AssessmentStatus) error
	SaveResponseFunc           func(ctx context.Context, assessmentID uuid.UUID, response maturity.Response) error
	ListResponsesFunc          func(ctx context.Context, assessmentID uuid.UUID) ([]maturity.Response, error)
	DeleteResponsesFunc        func(ctx context.Context, assessmentID uuid.UUID) error
}

// NewMockAssessmentRepository creates a new MockAssessmentRepository.
func NewMockAssessmentRepository() *MockAssessmentRepository {
	return &MockAssessmentRepository{
		assessments: make(map[uuid.UUID]models.Assessment),
		responses:   make(map[uuid.UUID]map[string]maturity.Response),
	}
}

// CreateAssessment creates a new assessment.
func (m *MockAssessmentRepository) CreateAssessment(ctx context.Context, params service.CreateAssessmentParams) (*models.Assessment, error) {
	if m.CreateAssessmentFunc != nil {
		return m.CreateAssessmentFunc(ctx, params)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	assessment := models.Assessment{
		ID:          uuid.New(),
		OrgID:       params.OrgID,
		Framework:   string(params.Framework),
		Name:        params.Name,
		Description: params.Description,
		Status:      models.AssessmentOpen,
		InitiatedBy: params.InitiatedBy,
	}
	m.assessments[assessment.ID] = assessment
	return &assessment, nil
}

// GetAssessment returns an assessment by ID.
func (m *MockAssessmentRepository) GetAssessment(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	if m.GetAssessmentFunc != nil {
		return m.GetAssessmentFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if a, ok := m.assessments[id]; ok {
		return &a, nil
	}
	return nil, service.ErrNotFound
}

// ListAssessments returns the assessments of an organization.
func (m *MockAssessmentRepository) ListAssessments(ctx context.Context, params service.ListAssessmentsParams) ([]models.Assessment, error) {
	if m.ListAssessmentsFunc != nil {
		return m.ListAssessmentsFunc(ctx, params)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Assessment
	for _, a := range m.assessments {
		if a.OrgID != params.OrgID {
			continue
		}
		if params.Framework != nil && a.Framework != string(*params.Framework) {
			continue
		}
		if params.Status != nil && a.Status != *params.Status {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

// UpdateAssessmentStatus moves an assessment to a new status.
func (m *MockAssessmentRepository) UpdateAssessmentStatus(ctx context.Context, id uuid.UUID, status models.AssessmentStatus) error {
	if m.UpdateAssessmentStatusFunc != nil {
		return m.UpdateAssessmentStatusFunc(ctx, id, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assessments[id]
	if !ok {
		return service.ErrNotFound
	}
	a.Status = status
	m.assessments[id] = a
	return nil
}

// SaveResponse upserts one control response of an assessment.
func (m *MockAssessmentRepository) SaveResponse(ctx context.Context, assessmentID uuid.UUID, response maturity.Response) error {
	if m.SaveResponseFunc != nil {
		return m.SaveResponseFunc(ctx, assessmentID, response)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.responses[assessmentID] == nil {
		m.responses[assessmentID] = make(map[string]maturity.Response)
	}
	m.responses[assessmentID][response.ControlID] = response
	return nil
}

// ListResponses returns the stored responses of an assessment.
func (m *MockAssessmentRepository) ListResponses(ctx context.Context, assessmentID uuid.UUID) ([]maturity.Response, error) {
	if m.ListResponsesFunc != nil {
		return m.ListResponsesFunc(ctx, assessmentID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []maturity.Response
	for _, r := range m.responses[assessmentID] {
		result = append(result, r)
	}
	return result, nil
}

// DeleteResponses removes every response of an assessment.
func (m *MockAssessmentRepository) DeleteResponses(ctx context.Context, assessmentID uuid.UUID) error {
	if m.DeleteResponsesFunc != nil {
		return m.DeleteResponsesFunc(ctx, assessmentID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.responses, assessmentID)
	return nil
}

// AddAssessment adds an assessment directly to the mock (for test setup).
func (m *MockAssessmentRepository) AddAssessment(a models.Assessment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = a
}

// ResponseCount returns the number of stored responses for an assessment.
func (m *MockAssessmentRepository) ResponseCount(assessmentID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.responses[assessmentID])
}

// Reset clears all data from the mock.
func (m *MockAssessmentRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments = make(map[uuid.UUID]models.Assessment)
	m.responses = make(map[uuid.UUID]map[string]maturity.Response)
}
