package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/internal/service/mocks"
	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"
)

func levelPtr(l maturity.Level) *maturity.Level { return &l }

func statusPtr(s maturity.ImplementationStatus) *maturity.ImplementationStatus { return &s }

func strPtr(s string) *string { return &s }

func newAssessmentService(repo *mocks.MockAssessmentRepository) *service.AssessmentService {
	return service.NewAssessmentService(repo, events.NoopPublisher{}, nil)
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestAssessmentService_CreateAssessment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates open assessment for known framework", func(t *testing.T) {
		repo := mocks.NewMockAssessmentRepository()
		svc := newAssessmentService(repo)

		a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
			OrgID:     uuid.New(),
			Framework: maturity.FrameworkISO27001,
			Name:      "Audit annuel",
		})

		require.NoError(t, err)
		assert.Equal(t, models.AssessmentOpen, a.Status)
		assert.Equal(t, "iso27001", a.Framework)
	})

	t.Run("rejects unknown framework", func(t *testing.T) {
		repo := mocks.NewMockAssessmentRepository()
		svc := newAssessmentService(repo)

		_, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
			OrgID:     uuid.New(),
			Framework: "cobit",
		})

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "framework", verr.Field)
	})
}

func TestAssessmentService_UpdateResponse(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	setup := func(t *testing.T) (*service.AssessmentService, *mocks.MockAssessmentRepository, uuid.UUID) {
		repo := mocks.NewMockAssessmentRepository()
		svc := newAssessmentService(repo)
		a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
			OrgID:     orgID,
			Framework: maturity.FrameworkISO27001,
			Name:      "Audit",
		})
		require.NoError(t, err)
		return svc, repo, a.ID
	}

	t.Run("applies and persists a partial edit", func(t *testing.T) {
		svc, repo, id := setup(t)

		r, err := svc.UpdateResponse(ctx, id, orgID, "A.5.1", maturity.ResponseUpdate{
			CurrentLevel: levelPtr("defini"),
			TargetLevel:  levelPtr("optimise"),
			Status:       statusPtr(maturity.StatusPartial),
		}, "alice")

		require.NoError(t, err)
		assert.Equal(t, maturity.Level("defini"), r.CurrentLevel)
		assert.Equal(t, 1, repo.ResponseCount(id))
	})

	t.Run("rejects unknown control", func(t *testing.T) {
		svc, _, id := setup(t)

		_, err := svc.UpdateResponse(ctx, id, orgID, "A.99.99", maturity.ResponseUpdate{
			CurrentLevel: levelPtr("defini"),
		}, "alice")

		assert.ErrorIs(t, err, maturity.ErrNotFound)
	})

	t.Run("rejects branch control", func(t *testing.T) {
		svc, _, id := setup(t)

		_, err := svc.UpdateResponse(ctx, id, orgID, "A.5", maturity.ResponseUpdate{
			CurrentLevel: levelPtr("defini"),
		}, "alice")

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("wrong org sees not found", func(t *testing.T) {
		svc, _, id := setup(t)

		_, err := svc.UpdateResponse(ctx, id, uuid.New(), "A.5.1", maturity.ResponseUpdate{
			CurrentLevel: levelPtr("defini"),
		}, "alice")

		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("completed assessment is read-only", func(t *testing.T) {
		svc, _, id := setup(t)

		_, err := svc.Complete(ctx, id, orgID, "alice")
		require.NoError(t, err)

		_, err = svc.UpdateResponse(ctx, id, orgID, "A.5.1", maturity.ResponseUpdate{
			CurrentLevel: levelPtr("defini"),
		}, "alice")

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestAssessmentService_ScoresAndGaps(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	repo := mocks.NewMockAssessmentRepository()
	svc := newAssessmentService(repo)
	a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
		OrgID:     orgID,
		Framework: maturity.FrameworkISO27001,
		Name:      "Audit",
	})
	require.NoError(t, err)

	_, err = svc.UpdateResponse(ctx, a.ID, orgID, "A.5.1", maturity.ResponseUpdate{
		CurrentLevel: levelPtr("defini"),
		TargetLevel:  levelPtr("optimise"),
		Status:       statusPtr(maturity.StatusPartial),
	}, "alice")
	require.NoError(t, err)

	_, err = svc.UpdateResponse(ctx, a.ID, orgID, "A.5.2", maturity.ResponseUpdate{
		CurrentLevel: levelPtr("gere"),
		TargetLevel:  levelPtr("gere"),
		Status:       statusPtr(maturity.StatusFull),
	}, "alice")
	require.NoError(t, err)

	t.Run("branch score averages answered leaves only", func(t *testing.T) {
		scores, err := svc.GetScores(ctx, a.ID, orgID)
		require.NoError(t, err)

		var a5 maturity.BranchScore
		for _, b := range scores.Branches {
			if b.BranchID == "A.5" {
				a5 = b
			}
		}
		assert.Equal(t, 2, a5.AssessedLeaves)
		assert.InDelta(t, 2.5, a5.CurrentScore, 1e-9)
	})

	t.Run("gap analysis reports only positive gaps", func(t *testing.T) {
		gaps, err := svc.GetGaps(ctx, a.ID, orgID, "")
		require.NoError(t, err)

		require.Len(t, gaps, 1)
		assert.Equal(t, "A.5.1", gaps[0].ControlID)
		assert.Equal(t, 2, gaps[0].GapMagnitude)
		assert.Equal(t, models.PriorityHigh, gaps[0].Priority)
	})

	t.Run("session survives a cache flush via repository reload", func(t *testing.T) {
		// A fresh service sharing the repository simulates a restart.
		svc2 := newAssessmentService(repo)

		scores, err := svc2.GetScores(ctx, a.ID, orgID)
		require.NoError(t, err)

		var a5 maturity.BranchScore
		for _, b := range scores.Branches {
			if b.BranchID == "A.5" {
				a5 = b
			}
		}
		assert.Equal(t, 2, a5.AssessedLeaves)
		assert.InDelta(t, 2.5, a5.CurrentScore, 1e-9)
	})
}

func TestAssessmentService_Reset(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	repo := mocks.NewMockAssessmentRepository()
	svc := newAssessmentService(repo)
	a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
		OrgID:     orgID,
		Framework: maturity.FrameworkNISTCSF,
		Name:      "CSF",
	})
	require.NoError(t, err)

	_, err = svc.UpdateResponse(ctx, a.ID, orgID, "GV.OC", maturity.ResponseUpdate{
		CurrentLevel: levelPtr("repeatable"),
		Evidence:     strPtr("charte publiée"),
	}, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, repo.ResponseCount(a.ID))

	require.NoError(t, svc.Reset(ctx, a.ID, orgID, "alice"))

	assert.Equal(t, 0, repo.ResponseCount(a.ID))
	summary, err := svc.GetAssessment(ctx, a.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AnsweredLeaves)
	assert.Equal(t, models.AssessmentOpen, summary.Assessment.Status)
}

func TestAssessmentService_Complete(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	repo := mocks.NewMockAssessmentRepository()
	svc := newAssessmentService(repo)
	a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
		OrgID:     orgID,
		Framework: maturity.FrameworkCISAZTMM,
		Name:      "ZT",
	})
	require.NoError(t, err)

	summary, err := svc.Complete(ctx, a.ID, orgID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentCompleted, summary.Assessment.Status)

	_, err = svc.Complete(ctx, a.ID, orgID, "alice")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAssessmentService_ScoringIsTraced(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	repo := mocks.NewMockAssessmentRepository()
	svc := newAssessmentService(repo)
	a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
		OrgID:     orgID,
		Framework: maturity.FrameworkISO27001,
		Name:      "Audit",
	})
	require.NoError(t, err)

	_, err = svc.GetScores(ctx, a.ID, orgID)
	require.NoError(t, err)
	_, err = svc.GetGaps(ctx, a.ID, orgID, "")
	require.NoError(t, err)

	names := make([]string, 0)
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "scoring.branch_scores")
	assert.Contains(t, names, "scoring.gap_analysis")
}

func TestAssessmentService_PublishesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	repo := mocks.NewMockAssessmentRepository()
	publisher := &recordingPublisher{}
	svc := service.NewAssessmentService(repo, publisher, nil)

	a, err := svc.CreateAssessment(ctx, service.CreateAssessmentParams{
		OrgID:     orgID,
		Framework: maturity.FrameworkISO27001,
		Name:      "Audit annuel",
	})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TypeAssessmentCreated, publisher.events[0].Type)
	assert.Equal(t, orgID.String(), publisher.events[0].OrgID)

	_, err = svc.Complete(ctx, a.ID, orgID, "alice")
	require.NoError(t, err)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, events.TypeAssessmentCompleted, publisher.events[1].Type)
}
