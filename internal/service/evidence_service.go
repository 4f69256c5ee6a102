package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/audit"
	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/models"
)

// EvidenceService handles evidence submission and validation.
type EvidenceService struct {
	repo      EvidenceRepository
	plans     PlanRepository
	publisher events.Publisher
	auditor   AuditRecorder
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(repo EvidenceRepository, plans PlanRepository, publisher events.Publisher, auditor AuditRecorder) *EvidenceService {
	return &EvidenceService{
		repo:      repo,
		plans:     plans,
		publisher: publisher,
		auditor:   auditor,
	}
}

// Submit records a new evidence record against an action plan. The record is
// created pending; only the RSSI validation moves it on.
func (s *EvidenceService) Submit(ctx context.Context, ev models.Evidence) (*models.Evidence, error) {
	if err := ev.ValidateSubmission(); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetPlan(ctx, ev.ActionPlanID)
	if err != nil {
		return nil, err
	}
	if plan.OrgID != ev.OrgID {
		return nil, ErrNotFound
	}

	now := nowFunc()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.EvidenceType == "" {
		ev.EvidenceType = models.EvidenceDocument
	}
	ev.Status = models.EvidencePending
	ev.SubmittedAt = now
	ev.CreatedAt = now
	ev.UpdatedAt = now

	created, err := s.repo.CreateEvidence(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("create evidence: %w", err)
	}

	if s.publisher != nil {
		event := events.NewEvent(events.TypeEvidenceSubmitted, ev.OrgID.String(), map[string]any{
			"evidenceId": created.ID.String(),
			"planId":     ev.ActionPlanID.String(),
		})
		_ = s.publisher.Publish(ctx, event)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      ev.SubmittedBy,
			OrgID:        ev.OrgID,
			Action:       audit.ActionEvidenceSubmitted,
			ResourceType: "evidence",
			ResourceID:   created.ID.String(),
			Status:       audit.StatusSuccess,
		})
	}

	return created, nil
}

// Get retrieves an evidence record with org ownership check.
func (s *EvidenceService) Get(ctx context.Context, id, orgID uuid.UUID) (*models.Evidence, error) {
	ev, err := s.repo.GetEvidence(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.OrgID != orgID {
		return nil, ErrNotFound
	}
	return ev, nil
}

// ListByPlan returns the evidence attached to an action plan.
func (s *EvidenceService) ListByPlan(ctx context.Context, planID, orgID uuid.UUID) ([]models.Evidence, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.OrgID != orgID {
		return nil, ErrNotFound
	}

	evidence, err := s.repo.ListEvidenceByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return evidence, nil
}

// ValidateInput contains input for an evidence validation decision.
type ValidateInput struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	Decision  models.EvidenceStatus
	Validator string
	Remarks   string
}

// Validate records the RSSI decision on a pending record. A record is
// decided exactly once; a second attempt fails with InvalidTransitionError.
func (s *EvidenceService) Validate(ctx context.Context, input ValidateInput) (*models.Evidence, error) {
	ev, err := s.Get(ctx, input.ID, input.OrgID)
	if err != nil {
		return nil, err
	}

	now := nowFunc()
	if err := ev.Decide(input.Decision, input.Validator, input.Remarks, now); err != nil {
		return nil, err
	}
	ev.UpdatedAt = now

	updated, err := s.repo.UpdateEvidence(ctx, *ev)
	if err != nil {
		return nil, fmt.Errorf("update evidence: %w", err)
	}

	if s.publisher != nil {
		event := events.NewEvent(events.TypeEvidenceValidated, input.OrgID.String(), map[string]any{
			"evidenceId": input.ID.String(),
			"decision":   input.Decision,
		})
		_ = s.publisher.Publish(ctx, event)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      input.Validator,
			OrgID:        input.OrgID,
			Action:       audit.ActionEvidenceValidated,
			ResourceType: "evidence",
			ResourceID:   input.ID.String(),
			Changes:      map[string]audit.Change{"status": {Old: models.EvidencePending, New: input.Decision}},
			Status:       audit.StatusSuccess,
		})
	}

	return updated, nil
}

// AmendRemarks updates the RSSI remarks on an already-validated record.
func (s *EvidenceService) AmendRemarks(ctx context.Context, id, orgID uuid.UUID, remarks string) (*models.Evidence, error) {
	ev, err := s.Get(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	if err := ev.AmendRemarks(remarks); err != nil {
		return nil, err
	}
	ev.UpdatedAt = nowFunc()

	updated, err := s.repo.UpdateEvidence(ctx, *ev)
	if err != nil {
		return nil, fmt.Errorf("update evidence: %w", err)
	}
	return updated, nil
}
