// Package service provides business logic for the API.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/audit"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// Repository Interfaces - For dependency injection and testing
// =============================================================================

// AssessmentRepository defines the interface for assessment data access.
type AssessmentRepository interface {
	CreateAssessment(ctx context.Context, params CreateAssessmentParams) (*models.Assessment, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*models.Assessment, error)
	ListAssessments(ctx context.Context, params ListAssessmentsParams) ([]models.Assessment, error)
	UpdateAssessmentStatus(ctx context.Context, id uuid.UUID, status models.AssessmentStatus) error
	SaveResponse(ctx context.Context, assessmentID uuid.UUID, response maturity.Response) error
	ListResponses(ctx context.Context, assessmentID uuid.UUID) ([]maturity.Response, error)
	DeleteResponses(ctx context.Context, assessmentID uuid.UUID) error
}

// PlanRepository defines the interface for action plan data access.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error)
	UpsertPlans(ctx context.Context, plans []models.ActionPlan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*models.ActionPlan, error)
	ListPlans(ctx context.Context, params ListPlansParams) ([]models.ActionPlan, error)
	UpdatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error)
}

// EvidenceRepository defines the interface for evidence data access.
type EvidenceRepository interface {
	CreateEvidence(ctx context.Context, ev models.Evidence) (*models.Evidence, error)
	GetEvidence(ctx context.Context, id uuid.UUID) (*models.Evidence, error)
	ListEvidenceByPlan(ctx context.Context, planID uuid.UUID) ([]models.Evidence, error)
	UpdateEvidence(ctx context.Context, ev models.Evidence) (*models.Evidence, error)
}

// AuditRecorder records audit entries without blocking the request path.
type AuditRecorder interface {
	LogAsync(ctx context.Context, entry audit.Entry)
}

// =============================================================================
// Parameter Types
// =============================================================================

// CreateAssessmentParams contains parameters for creating an assessment.
type CreateAssessmentParams struct {
	OrgID       uuid.UUID
	Framework   maturity.FrameworkType
	Name        string
	Description string
	InitiatedBy string
}

// ListAssessmentsParams contains parameters for listing assessments.
type ListAssessmentsParams struct {
	OrgID     uuid.UUID
	Framework *maturity.FrameworkType
	Status    *models.AssessmentStatus
	Limit     int32
	Offset    int32
}

// ListPlansParams contains parameters for listing action plans.
type ListPlansParams struct {
	OrgID     uuid.UUID
	Framework *string
	Status    *models.PlanStatus
	Priority  *models.Priority
	Limit     int32
	Offset    int32
}

// nowFunc returns the current time. Overridable in tests.
var nowFunc = func() time.Time { return time.Now().UTC() }
