package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/audit"
	"github.com/conformeahq/conformea/pkg/catalog"
	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"
	"github.com/conformeahq/conformea/pkg/telemetry"
)

// session holds the in-memory working state of one assessment: its framework
// spec, response store and scoring engine. Responses are mirrored to the
// repository on every edit, so a session can always be rebuilt.
type session struct {
	mu         sync.RWMutex
	assessment *models.Assessment
	spec       *maturity.FrameworkSpec
	store      *maturity.Store
	engine     *maturity.Engine
}

// AssessmentService handles assessment business logic.
type AssessmentService struct {
	repo      AssessmentRepository
	publisher events.Publisher
	auditor   AuditRecorder

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(repo AssessmentRepository, publisher events.Publisher, auditor AuditRecorder) *AssessmentService {
	return &AssessmentService{
		repo:      repo,
		publisher: publisher,
		auditor:   auditor,
		sessions:  make(map[uuid.UUID]*session),
	}
}

// CreateAssessment opens a new assessment against a supported framework.
func (s *AssessmentService) CreateAssessment(ctx context.Context, params CreateAssessmentParams) (*models.Assessment, error) {
	spec, err := catalog.Framework(params.Framework)
	if err != nil {
		return nil, &models.ValidationError{Field: "framework", Message: fmt.Sprintf("référentiel inconnu %q", params.Framework)}
	}

	assessment, err := s.repo.CreateAssessment(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}

	store := maturity.NewStore(spec)
	s.mu.Lock()
	s.sessions[assessment.ID] = &session{
		assessment: assessment,
		spec:       spec,
		store:      store,
		engine:     maturity.NewEngine(spec, store),
	}
	s.mu.Unlock()

	if s.publisher != nil {
		event := events.NewEvent(events.TypeAssessmentCreated, params.OrgID.String(), map[string]any{
			"assessmentId": assessment.ID.String(),
			"framework":    params.Framework,
		})
		_ = s.publisher.Publish(ctx, event)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      params.InitiatedBy,
			OrgID:        params.OrgID,
			Action:       audit.ActionAssessmentCreated,
			ResourceType: "assessment",
			ResourceID:   assessment.ID.String(),
			Status:       audit.StatusSuccess,
		})
	}

	return assessment, nil
}

// session returns the working state of an assessment, rebuilding it from the
// repository when the process has restarted since the last edit.
func (s *AssessmentService) session(ctx context.Context, id, orgID uuid.UUID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		if sess.assessment.OrgID != orgID {
			return nil, ErrNotFound
		}
		return sess, nil
	}

	assessment, err := s.repo.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.OrgID != orgID {
		return nil, ErrNotFound
	}

	spec, err := catalog.Framework(maturity.FrameworkType(assessment.Framework))
	if err != nil {
		return nil, fmt.Errorf("load framework: %w", err)
	}

	store := maturity.NewStore(spec)
	responses, err := s.repo.ListResponses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	for _, r := range responses {
		if err := store.Put(r); err != nil {
			return nil, fmt.Errorf("restore response %s: %w", r.ControlID, err)
		}
	}

	sess = &session{
		assessment: assessment,
		spec:       spec,
		store:      store,
		engine:     maturity.NewEngine(spec, store),
	}

	s.mu.Lock()
	// Another request may have rebuilt the session concurrently; keep the
	// first one so edits land in a single store.
	if existing, ok := s.sessions[id]; ok {
		sess = existing
	} else {
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	return sess, nil
}

// AssessmentSummary is an assessment with its derived scores.
type AssessmentSummary struct {
	Assessment      models.Assessment `json:"assessment"`
	Framework       FrameworkInfo     `json:"framework"`
	OverallScore    float64           `json:"overallScore"`
	OverallLevel    maturity.Level    `json:"overallLevel"`
	CompletionRatio float64           `json:"completionRatio"`
	AnsweredLeaves  int               `json:"answeredLeaves"`
}

// FrameworkInfo describes a framework in API responses.
type FrameworkInfo struct {
	Type    maturity.FrameworkType `json:"type"`
	Name    string                 `json:"name"`
	Version string                 `json:"version"`
}

// GetAssessment returns an assessment with its current scores and completion.
func (s *AssessmentService) GetAssessment(ctx context.Context, id, orgID uuid.UUID) (*AssessmentSummary, error) {
	sess, err := s.session(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	completion, err := sess.store.CompletionRatio("")
	if err != nil {
		return nil, fmt.Errorf("completion ratio: %w", err)
	}

	return &AssessmentSummary{
		Assessment: *sess.assessment,
		Framework: FrameworkInfo{
			Type:    sess.spec.Type,
			Name:    sess.spec.Name,
			Version: sess.spec.Version,
		},
		OverallScore:    sess.engine.OverallScore(),
		OverallLevel:    sess.engine.OverallLevel(),
		CompletionRatio: completion,
		AnsweredLeaves:  sess.store.Len(),
	}, nil
}

// ListAssessments returns the assessments of an organization.
func (s *AssessmentService) ListAssessments(ctx context.Context, params ListAssessmentsParams) ([]models.Assessment, error) {
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	assessments, err := s.repo.ListAssessments(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// UpdateResponse applies a partial edit to one control response and persists
// the merged result. A completed assessment is read-only.
func (s *AssessmentService) UpdateResponse(ctx context.Context, id, orgID uuid.UUID, controlID string, upd maturity.ResponseUpdate, actor string) (*maturity.Response, error) {
	sess, err := s.session(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.assessment.Status == models.AssessmentCompleted {
		return nil, &models.ValidationError{Field: "status", Message: "l'évaluation est clôturée"}
	}

	if err := sess.store.Apply(controlID, upd); err != nil {
		return nil, err
	}

	response := sess.store.Get(controlID)
	if err := s.repo.SaveResponse(ctx, id, response); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	sess.assessment.UpdatedAt = nowFunc()

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      actor,
			OrgID:        orgID,
			Action:       audit.ActionResponseUpdated,
			ResourceType: "assessment",
			ResourceID:   id.String(),
			Context:      map[string]any{"controlId": controlID},
			Status:       audit.StatusSuccess,
		})
	}

	return &response, nil
}

// ScoreReport bundles branch scores with the overall aggregate.
type ScoreReport struct {
	Branches     []maturity.BranchScore `json:"branches"`
	OverallScore float64                `json:"overallScore"`
	OverallLevel maturity.Level         `json:"overallLevel"`
}

// GetScores computes the branch scores and overall maturity of an assessment.
func (s *AssessmentService) GetScores(ctx context.Context, id, orgID uuid.UUID) (*ScoreReport, error) {
	sess, err := s.session(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	_, span := telemetry.ScoringSpan(ctx, string(sess.spec.Type), "branch_scores")
	defer span.End()
	defer telemetry.Timed(span)()

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	report := &ScoreReport{
		Branches:     sess.engine.BranchScores(),
		OverallScore: sess.engine.OverallScore(),
		OverallLevel: sess.engine.OverallLevel(),
	}
	span.SetAttribute("scoring.branches", len(report.Branches))
	return report, nil
}

// GetGaps runs the gap analysis over the answered controls, optionally
// restricted to one branch.
func (s *AssessmentService) GetGaps(ctx context.Context, id, orgID uuid.UUID, branchID string) ([]maturity.GapRecord, error) {
	sess, err := s.session(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	_, span := telemetry.ScoringSpan(ctx, string(sess.spec.Type), "gap_analysis")
	defer span.End()

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	records, err := sess.engine.AnalyzeGaps(branchID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetAttribute("scoring.gaps", len(records))
	return records, nil
}

// Reset clears every response of an assessment and reopens it.
func (s *AssessmentService) Reset(ctx context.Context, id, orgID uuid.UUID, actor string) error {
	sess, err := s.session(ctx, id, orgID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.repo.DeleteResponses(ctx, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	sess.store.Reset()

	if sess.assessment.Status != models.AssessmentOpen {
		if err := s.repo.UpdateAssessmentStatus(ctx, id, models.AssessmentOpen); err != nil {
			return fmt.Errorf("reopen assessment: %w", err)
		}
		sess.assessment.Status = models.AssessmentOpen
	}
	sess.assessment.UpdatedAt = nowFunc()

	return nil
}

// Complete closes an assessment and publishes the final score.
func (s *AssessmentService) Complete(ctx context.Context, id, orgID uuid.UUID, actor string) (*AssessmentSummary, error) {
	sess, err := s.session(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.ScoringSpan(ctx, string(sess.spec.Type), "complete")
	defer span.End()

	sess.mu.Lock()
	if sess.assessment.Status == models.AssessmentCompleted {
		sess.mu.Unlock()
		return nil, &models.ValidationError{Field: "status", Message: "l'évaluation est déjà clôturée"}
	}
	if err := s.repo.UpdateAssessmentStatus(ctx, id, models.AssessmentCompleted); err != nil {
		sess.mu.Unlock()
		return nil, fmt.Errorf("complete assessment: %w", err)
	}
	sess.assessment.Status = models.AssessmentCompleted
	sess.assessment.UpdatedAt = nowFunc()
	sess.mu.Unlock()

	summary, err := s.GetAssessment(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := events.NewEvent(events.TypeAssessmentCompleted, orgID.String(), map[string]any{
			"assessmentId": id.String(),
			"framework":    summary.Framework.Type,
			"overallScore": summary.OverallScore,
			"overallLevel": summary.OverallLevel,
		})
		// Event delivery must not fail the completion itself.
		_ = s.publisher.Publish(ctx, event)
	}

	if s.auditor != nil {
		s.auditor.LogAsync(ctx, audit.Entry{
			ActorType:    audit.ActorTypeUser,
			ActorID:      actor,
			OrgID:        orgID,
			Action:       audit.ActionAssessmentCompleted,
			ResourceType: "assessment",
			ResourceID:   id.String(),
			Status:       audit.StatusSuccess,
		})
	}

	return summary, nil
}
