package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/models"

	"github.com/conformeahq/conformea/internal/handlers"
	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/internal/service/mocks"
)

func newPlanHandler() (*handlers.PlanHandler, *mocks.MockPlanRepository) {
	log := logger.New("error", "json")
	repo := mocks.NewMockPlanRepository()
	svc := service.NewPlanService(repo, nil, events.NoopPublisher{}, nil)
	return handlers.NewPlanHandler(svc, log), repo
}

func TestPlanHandler_Generate(t *testing.T) {
	handler, repo := newPlanHandler()

	t.Run("generates plans from the catalog baselines", func(t *testing.T) {
		body := `{"framework": "iso27001"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/generate", strings.NewReader(body))
		req = withUserContext(req)

		rr := executeRequest(handler.Generate, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var plans []models.ActionPlan
		require.NoError(t, decodeJSON(rr, &plans))
		require.NotEmpty(t, plans)
		assert.Equal(t, repo.Count(), len(plans))

		byControl := make(map[string]models.ActionPlan, len(plans))
		for _, p := range plans {
			assert.Equal(t, "iso27001", p.Framework)
			assert.Equal(t, testOrgID, p.OrgID)
			byControl[p.ControlID] = p
		}

		// A.5.7 starts from zero maturity: untouched, most urgent.
		untouched, ok := byControl["A.5.7"]
		require.True(t, ok)
		assert.Equal(t, models.PlanNotStarted, untouched.Status)
		assert.Equal(t, models.PriorityCritical, untouched.Priority)
		assert.Zero(t, untouched.CompletionPercentage)

		// A.5.9 is already partially implemented.
		underway, ok := byControl["A.5.9"]
		require.True(t, ok)
		assert.Equal(t, models.PlanInProgress, underway.Status)
		assert.Equal(t, 50, underway.CompletionPercentage)

		// A.6.2 is at the mature baseline already: no plan generated.
		_, ok = byControl["A.6.2"]
		assert.False(t, ok)
	})

	t.Run("rejects unknown framework", func(t *testing.T) {
		body := `{"framework": "pci"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/generate", strings.NewReader(body))
		req = withUserContext(req)

		rr := executeRequest(handler.Generate, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPlanHandler_Create(t *testing.T) {
	handler, _ := newPlanHandler()

	t.Run("creates a manual plan with defaults", func(t *testing.T) {
		body := `{
			"title": "Formaliser la politique de sauvegarde",
			"description": "Rédiger et faire approuver la politique",
			"framework": "iso27001",
			"controlId": "A.8.13",
			"assignee": "dsi@example.fr",
			"dueDate": "2026-10-31T00:00:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(body))
		req = withUserContext(req)

		rr := executeRequest(handler.Create, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var plan models.ActionPlan
		require.NoError(t, decodeJSON(rr, &plan))
		assert.NotEqual(t, uuid.Nil, plan.ID)
		assert.Equal(t, models.PlanNotStarted, plan.Status)
		assert.Equal(t, models.PriorityMedium, plan.Priority)
		assert.Equal(t, testOrgID, plan.OrgID)
	})

	t.Run("missing assignee is a field error", func(t *testing.T) {
		body := `{
			"title": "Plan sans responsable",
			"description": "Description",
			"controlId": "A.5.1",
			"dueDate": "2026-10-31T00:00:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(body))
		req = withUserContext(req)

		rr := executeRequest(handler.Create, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp handlers.ErrorResponse
		require.NoError(t, decodeJSON(rr, &resp))
		assert.Equal(t, "assignee", resp.Field)
	})
}

func TestPlanHandler_GetAndList(t *testing.T) {
	handler, repo := newPlanHandler()

	plan := models.ActionPlan{
		ID:          uuid.New(),
		OrgID:       testOrgID,
		Title:       "Déployer la MFA",
		Description: "Étendre la MFA aux accès distants",
		Framework:   "cisa_ztmm",
		ControlID:   "ID.AUTH",
		Priority:    models.PriorityHigh,
		Status:      models.PlanInProgress,
		Assignee:    "rssi@example.fr",
		DueDate:     time.Now().Add(30 * 24 * time.Hour),
	}
	repo.AddPlan(plan)

	t.Run("returns one plan", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+plan.ID.String(), nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", plan.ID.String())

		rr := executeRequest(handler.Get, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.ActionPlan
		require.NoError(t, decodeJSON(rr, &got))
		assert.Equal(t, plan.ID, got.ID)
		assert.Equal(t, "Déployer la MFA", got.Title)
	})

	t.Run("unknown plan is a 404", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+id, nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", id)

		rr := executeRequest(handler.Get, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("filters by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans?status=in_progress", nil)
		req = withUserContext(req)

		rr := executeRequest(handler.List, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var plans []models.ActionPlan
		require.NoError(t, decodeJSON(rr, &plans))
		require.Len(t, plans, 1)
		assert.Equal(t, plan.ID, plans[0].ID)
	})
}

func TestPlanHandler_Update(t *testing.T) {
	handler, repo := newPlanHandler()

	plan := models.ActionPlan{
		ID:          uuid.New(),
		OrgID:       testOrgID,
		Title:       "Chiffrer les sauvegardes",
		Description: "Chiffrement au repos",
		Framework:   "iso27001",
		ControlID:   "A.8.13",
		Priority:    models.PriorityMedium,
		Status:      models.PlanInProgress,
		Assignee:    "dsi@example.fr",
		DueDate:     time.Now().Add(60 * 24 * time.Hour),
	}
	repo.AddPlan(plan)

	t.Run("applies a partial edit", func(t *testing.T) {
		body := `{"assignee": "ops@example.fr", "completionPercentage": 40}`
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/plans/"+plan.ID.String(), strings.NewReader(body))
		req = withUserContext(req)
		req = withURLParam(req, "id", plan.ID.String())

		rr := executeRequest(handler.Update, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.ActionPlan
		require.NoError(t, decodeJSON(rr, &got))
		assert.Equal(t, "ops@example.fr", got.Assignee)
		assert.Equal(t, 40, got.CompletionPercentage)
		assert.Equal(t, "Chiffrer les sauvegardes", got.Title)
	})

	t.Run("rejects completion outside 0-100", func(t *testing.T) {
		body := `{"completionPercentage": 150}`
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/plans/"+plan.ID.String(), strings.NewReader(body))
		req = withUserContext(req)
		req = withURLParam(req, "id", plan.ID.String())

		rr := executeRequest(handler.Update, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPlanHandler_Transition(t *testing.T) {
	handler, repo := newPlanHandler()

	plan := models.ActionPlan{
		ID:          uuid.New(),
		OrgID:       testOrgID,
		Title:       "Journaliser les accès administrateur",
		Description: "Centraliser les journaux",
		Framework:   "nist_csf",
		ControlID:   "PR.PS",
		Priority:    models.PriorityHigh,
		Status:      models.PlanNotStarted,
		Assignee:    "soc@example.fr",
		DueDate:     time.Now().Add(90 * 24 * time.Hour),
	}
	repo.AddPlan(plan)

	transition := func(status string) *httptest.ResponseRecorder {
		body := `{"status": "` + status + `"}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/plans/"+plan.ID.String()+"/status", strings.NewReader(body))
		req = withUserContext(req)
		req = withURLParam(req, "id", plan.ID.String())
		return executeRequest(handler.Transition, req)
	}

	t.Run("legal transition succeeds", func(t *testing.T) {
		rr := transition("in_progress")

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.ActionPlan
		require.NoError(t, decodeJSON(rr, &got))
		assert.Equal(t, models.PlanInProgress, got.Status)
	})

	t.Run("completion sets progress to 100", func(t *testing.T) {
		rr := transition("completed")

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.ActionPlan
		require.NoError(t, decodeJSON(rr, &got))
		assert.Equal(t, models.PlanCompleted, got.Status)
		assert.Equal(t, 100, got.CompletionPercentage)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		rr := transition("in_progress")

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
