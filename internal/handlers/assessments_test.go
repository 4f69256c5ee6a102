package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func newAssessmentHandler() (*handlers.AssessmentHandler, *service.AssessmentService, *mocks.MockAssessmentRepository) {
	log := logger.New("error", "json")
	repo := mocks.NewMockAssessmentRepository()
	svc := service.NewAssessmentService(repo, events.NoopPublisher{}, nil)
	reports := service.NewReportService(svc)
	return handlers.NewAssessmentHandler(svc, reports, log), svc, repo
}

func createTestAssessment(t *testing.T, handler *handlers.AssessmentHandler, framework string) models.Assessment {
	t.Helper()

	body := `{"framework": "` + framework + `", "name": "Audit annuel"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))
	req = withUserContext(req)

	rr := executeRequest(handler.Create, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var assessment models.Assessment
	require.NoError(t, decodeJSON(rr, &assessment))
	return assessment
}

func TestAssessmentHandler_Create(t *testing.T) {
	handler, _, _ := newAssessmentHandler()

	t.Run("creates an open assessment", func(t *testing.T) {
		assessment := createTestAssessment(t, handler, "iso27001")

		assert.Equal(t, "iso27001", assessment.Framework)
		assert.Equal(t, models.AssessmentOpen, assessment.Status)
		assert.Equal(t, testOrgID, assessment.OrgID)
		assert.Equal(t, "test@example.fr", assessment.InitiatedBy)
	})

	t.Run("rejects unknown framework", func(t *testing.T) {
		body := `{"framework": "cobit", "name": "Audit"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))
		req = withUserContext(req)

		rr := executeRequest(handler.Create, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp handlers.ErrorResponse
		require.NoError(t, decodeJSON(rr, &resp))
		assert.Equal(t, "framework", resp.Field)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", bytes.NewReader([]byte("{")))
		req = withUserContext(req)

		rr := executeRequest(handler.Create, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthorized without user context", func(t *testing.T) {
		body := `{"framework": "iso27001", "name": "Audit"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))

		rr := executeRequest(handler.Create, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAssessmentHandler_Get(t *testing.T) {
	handler, _, _ := newAssessmentHandler()
	assessment := createTestAssessment(t, handler, "nist_csf")

	t.Run("returns the assessment summary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+assessment.ID.String(), nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", assessment.ID.String())

		rr := executeRequest(handler.Get, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var summary service.AssessmentSummary
		require.NoError(t, decodeJSON(rr, &summary))
		assert.Equal(t, assessment.ID, summary.Assessment.ID)
		assert.Equal(t, "NIST Cybersecurity Framework 2.0", summary.Framework.Name)
		assert.Zero(t, summary.AnsweredLeaves)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/abc", nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", "abc")

		rr := executeRequest(handler.Get, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+id, nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", id)

		rr := executeRequest(handler.Get, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAssessmentHandler_UpdateResponse(t *testing.T) {
	handler, _, _ := newAssessmentHandler()
	assessment := createTestAssessment(t, handler, "iso27001")

	putResponse := func(controlID, body string) *httptest.ResponseRecorder {
		url := "/api/v1/assessments/" + assessment.ID.String() + "/responses/" + controlID
		req := httptest.NewRequest(http.MethodPut, url, strings.NewReader(body))
		req = withUserContext(req)
		req = withURLParam(req, "id", assessment.ID.String())
		req = withURLParam(req, "controlID", controlID)
		return executeRequest(handler.UpdateResponse, req)
	}

	t.Run("records an answer", func(t *testing.T) {
		rr := putResponse("A.5.1", `{"currentLevel": "defini", "targetLevel": "optimise", "status": "partial"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			ControlID    string `json:"controlId"`
			CurrentLevel string `json:"currentLevel"`
			TargetLevel  string `json:"targetLevel"`
		}
		require.NoError(t, decodeJSON(rr, &response))
		assert.Equal(t, "A.5.1", response.ControlID)
		assert.Equal(t, "defini", response.CurrentLevel)
		assert.Equal(t, "optimise", response.TargetLevel)
	})

	t.Run("unknown control is a 404", func(t *testing.T) {
		rr := putResponse("A.99.1", `{"currentLevel": "defini"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("level outside the scale is a 400", func(t *testing.T) {
		rr := putResponse("A.5.1", `{"currentLevel": "adaptive"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAssessmentHandler_ScoresAndGaps(t *testing.T) {
	handler, _, _ := newAssessmentHandler()
	assessment := createTestAssessment(t, handler, "iso27001")

	url := "/api/v1/assessments/" + assessment.ID.String() + "/responses/A.5.1"
	req := httptest.NewRequest(http.MethodPut, url, strings.NewReader(
		`{"currentLevel": "defini", "targetLevel": "optimise", "status": "partial"}`))
	req = withUserContext(req)
	req = withURLParam(req, "id", assessment.ID.String())
	req = withURLParam(req, "controlID", "A.5.1")
	require.Equal(t, http.StatusOK, executeRequest(handler.UpdateResponse, req).Code)

	t.Run("scores reflect the answered control", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+assessment.ID.String()+"/scores", nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", assessment.ID.String())

		rr := executeRequest(handler.Scores, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var report service.ScoreReport
		require.NoError(t, decodeJSON(rr, &report))
		assert.InDelta(t, 2.0, report.OverallScore, 0.001)
		assert.NotEmpty(t, report.Branches)
	})

	t.Run("gaps include the under-target control", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+assessment.ID.String()+"/gaps", nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", assessment.ID.String())

		rr := executeRequest(handler.Gaps, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var gaps []struct {
			ControlID    string `json:"controlId"`
			GapMagnitude int    `json:"gapMagnitude"`
			Priority     string `json:"priority"`
		}
		require.NoError(t, decodeJSON(rr, &gaps))
		require.Len(t, gaps, 1)
		assert.Equal(t, "A.5.1", gaps[0].ControlID)
		assert.Equal(t, 2, gaps[0].GapMagnitude)
		assert.Equal(t, "high", gaps[0].Priority)
	})
}

func TestAssessmentHandler_CompleteAndReset(t *testing.T) {
	handler, _, _ := newAssessmentHandler()
	assessment := createTestAssessment(t, handler, "cisa_ztmm")

	completeReq := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/"+assessment.ID.String()+"/complete", nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", assessment.ID.String())
		return executeRequest(handler.Complete, req)
	}

	t.Run("completes once", func(t *testing.T) {
		rr := completeReq()
		assert.Equal(t, http.StatusOK, rr.Code)

		var summary service.AssessmentSummary
		require.NoError(t, decodeJSON(rr, &summary))
		assert.Equal(t, models.AssessmentCompleted, summary.Assessment.Status)
	})

	t.Run("second completion is rejected", func(t *testing.T) {
		rr := completeReq()
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("reset reopens the assessment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/"+assessment.ID.String()+"/reset", nil)
		req = withUserContext(req)
		req = withURLParam(req, "id", assessment.ID.String())

		rr := executeRequest(handler.Reset, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		getReq := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+assessment.ID.String(), nil)
		getReq = withUserContext(getReq)
		getReq = withURLParam(getReq, "id", assessment.ID.String())

		getRR := executeRequest(handler.Get, getReq)
		require.Equal(t, http.StatusOK, getRR.Code)

		var summary service.AssessmentSummary
		require.NoError(t, decodeJSON(getRR, &summary))
		assert.Equal(t, models.AssessmentOpen, summary.Assessment.Status)
	})
}

func TestAssessmentHandler_Report(t *testing.T) {
	handler, _, _ := newAssessmentHandler()
	assessment := createTestAssessment(t, handler, "iso27001")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+assessment.ID.String()+"/report", nil)
	req = withUserContext(req)
	req = withURLParam(req, "id", assessment.ID.String())

	rr := executeRequest(handler.Report, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "ISO/IEC 27001")
}
