package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/audit"
	"github.com/conformeahq/conformea/pkg/catalog"
	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"
)

// PlanService handles action plan business logic.
type PlanService struct {
	repo        PlanRepository
	assessments *AssessmentService
	publisher   events.Publisher
	auditor     AuditRecorder
	policy      maturity.PlannerPolicy
}

// NewPlanService creates a new PlanService.
func NewPlanService(repo PlanRepository, assessments *AssessmentService, publisher events.Publisher, auditor AuditRecorder) *PlanService {
	return &PlanService{
		repo:        repo,
		assessments: assessments,
		publisher:   publisher,
		auditor:     auditor,
		policy:      maturity.DefaultPlannerPolicy(),
	}
}

// GeneratePlansInput contains input for generating action plans.
type GeneratePlansInput struct {
	OrgID     uuid.UUID
	Framework maturity.FrameworkType
	// FromAssessment derives plans from the gap analysis of an assessment
	// instead of the catalog baselines.
	FromAssessment *uuid.UUID
	Actor          string
}

// GeneratePlans synthesizes action plans for low-maturity controls and
// upserts them. Plan ids are deterministic per framework+control, so
// regenerating never duplicates.
func (s *PlanService) GeneratePlans(ctx context.Context, input GeneratePlansInput) ([]models.ActionPlan, error) {
	spec, err := catalog.Framework(input.Framework)
	if err != nil {
		return nil, &models.ValidationError{Field: "framework", Message: fmt.Sprintf("référentiel inconnu %q", input.Framework)}
	}

	now := nowFunc()
	var plans []models.ActionPlan
	if input.FromAssessment != nil {
		gaps, err := s.assessments.GetGaps(ctx, *input.FromAssessment, input.OrgID, "")
		if err != nil {
			return nil, err
		}
		plans = maturity.PlansFromGaps(spec, gaps, input.OrgID, now, s.policy)
	} else {
		plans = maturity.GeneratePlans(spec, input.OrgID, now, s.policy)
	}

	if err := s.repo.UpsertPlans(ctx, plans); err != nil {
		return nil, fmt.Errorf("upsert plans: %w", err)
	}

	if s.publisher != nil {
		event := events.NewEvent(events.TypePlansGenerated, input.OrgID.String(), map[string]any{
			"framework": input.Framework,
			"count":     len(plans),
		})
		_ = s.publisher.Publish(ctx, event)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      input.Actor,
			OrgID:        input.OrgID,
			Action:       audit.ActionPlansGenerated,
			ResourceType: "action_plan",
			Context:      map[string]any{"framework": input.Framework, "count": len(plans)},
			Status:       audit.StatusSuccess,
		})
	}

	return plans, nil
}

// CreatePlan records a manually authored action plan after validation.
// Validation is all-or-nothing: the first failing field blocks the save.
func (s *PlanService) CreatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	now := nowFunc()
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Status == "" {
		plan.Status = models.PlanNotStarted
	}
	if plan.Priority == "" {
		plan.Priority = models.PriorityMedium
	}
	plan.CreatedAt = now
	plan.UpdatedAt = now

	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return created, nil
}

// GetPlan retrieves an action plan with org ownership check.
func (s *PlanService) GetPlan(ctx context.Context, id, orgID uuid.UUID) (*models.ActionPlan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.OrgID != orgID {
		return nil, ErrNotFound
	}
	return plan, nil
}

// ListPlans returns the action plans of an organization, filtered.
func (s *PlanService) ListPlans(ctx context.Context, params ListPlansParams) ([]models.ActionPlan, error) {
	if params.Limit < 1 || params.Limit > 200 {
		params.Limit = 50
	}
	plans, err := s.repo.ListPlans(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// UpdatePlanInput carries a partial edit of an action plan. Status changes
// go through TransitionStatus instead.
type UpdatePlanInput struct {
	Title                *string
	Description          *string
	Assignee             *string
	DueDate              *time.Time
	EstimatedEffort      *string
	BusinessImpact       *string
	CompletionPercentage *int
}

// UpdatePlan applies a partial edit to a plan's editable fields.
func (s *PlanService) UpdatePlan(ctx context.Context, id, orgID uuid.UUID, input UpdatePlanInput) (*models.ActionPlan, error) {
	plan, err := s.GetPlan(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		plan.Title = *input.Title
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Assignee != nil {
		plan.Assignee = *input.Assignee
	}
	if input.DueDate != nil {
		plan.DueDate = *input.DueDate
	}
	if input.EstimatedEffort != nil {
		plan.EstimatedEffort = *input.EstimatedEffort
	}
	if input.BusinessImpact != nil {
		plan.BusinessImpact = *input.BusinessImpact
	}
	if input.CompletionPercentage != nil {
		if *input.CompletionPercentage < 0 || *input.CompletionPercentage > 100 {
			return nil, &models.ValidationError{Field: "completionPercentage", Message: "l'avancement doit être entre 0 et 100"}
		}
		plan.CompletionPercentage = *input.CompletionPercentage
	}
	plan.UpdatedAt = nowFunc()

	updated, err := s.repo.UpdatePlan(ctx, *plan)
	if err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			OrgID:        orgID,
			Action:       audit.ActionPlanUpdated,
			ResourceType: "action_plan",
			ResourceID:   id.String(),
			Status:       audit.StatusSuccess,
		})
	}

	return updated, nil
}

// TransitionStatus moves a plan through its status state machine. Illegal
// transitions surface as InvalidTransitionError, never silent coercion.
func (s *PlanService) TransitionStatus(ctx context.Context, id, orgID uuid.UUID, next models.PlanStatus, actor string) (*models.ActionPlan, error) {
	plan, err := s.GetPlan(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	from := plan.Status
	if err := plan.TransitionTo(next); err != nil {
		return nil, err
	}
	plan.UpdatedAt = nowFunc()

	updated, err := s.repo.UpdatePlan(ctx, *plan)
	if err != nil {
		return nil, fmt.Errorf("update plan status: %w", err)
	}

	if s.publisher != nil {
		event := events.NewEvent(events.TypePlanStatusChanged, orgID.String(), map[string]any{
			"planId": id.String(),
			"from":   from,
			"to":     next,
		})
		_ = s.publisher.Publish(ctx, event)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      actor,
			OrgID:        orgID,
			Action:       audit.ActionPlanStatusChanged,
			ResourceType: "action_plan",
			ResourceID:   id.String(),
			Changes:      map[string]audit.Change{"status": {Old: from, New: next}},
			Status:       audit.StatusSuccess,
		})
	}

	return updated, nil
}
