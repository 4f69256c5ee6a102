package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"

	"github.com/conformeahq/conformea/internal/middleware"
	"github.com/conformeahq/conformea/internal/service"
)

// AssessmentHandler handles assessment-related requests.
type AssessmentHandler struct {
	svc     *service.AssessmentService
	reports *service.ReportService
	log     *logger.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(svc *service.AssessmentService, reports *service.ReportService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		svc:     svc,
		reports: reports,
		log:     log.WithComponent("assessment-handler"),
	}
}

// CreateAssessmentRequest is the body of POST /assessments.
type CreateAssessmentRequest struct {
	Framework   string `json:"framework"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create starts a new assessment.
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	assessment, err := h.svc.CreateAssessment(ctx, service.CreateAssessmentParams{
		OrgID:       user.OrgID,
		Framework:   maturity.FrameworkType(req.Framework),
		Name:        req.Name,
		Description: req.Description,
		InitiatedBy: user.Email,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, assessment)
}

// Get returns one assessment with its score summary.
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}

	summary, err := h.svc.GetAssessment(ctx, id, user.OrgID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// List returns the organization's assessments.
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	params := service.ListAssessmentsParams{OrgID: user.OrgID}

	if f := r.URL.Query().Get("framework"); f != "" {
		ft := maturity.FrameworkType(f)
		params.Framework = &ft
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.AssessmentStatus(s)
		params.Status = &status
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		params.Limit = int32(l)
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		params.Offset = int32(o)
	}

	assessments, err := h.svc.ListAssessments(ctx, params)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, assessments)
}

// UpdateResponse records or amends the answer for one leaf control.
func (h *AssessmentHandler) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}
	controlID := chi.URLParam(r, "controlID")

	var upd maturity.ResponseUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.svc.UpdateResponse(ctx, id, user.OrgID, controlID, upd, user.Email)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// Scores returns the per-branch and overall maturity scores.
func (h *AssessmentHandler) Scores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}

	report, err := h.svc.GetScores(ctx, id, user.OrgID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Gaps returns the gap analysis, optionally scoped to one branch via the
// branch query parameter.
func (h *AssessmentHandler) Gaps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}

	gaps, err := h.svc.GetGaps(ctx, id, user.OrgID, r.URL.Query().Get("branch"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, gaps)
}

// Reset clears all responses and reopens the assessment.
func (h *AssessmentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}

	if err := h.svc.Reset(ctx, id, user.OrgID, user.Email); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Complete closes the assessment and freezes its responses.
func (h *AssessmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}

	summary, err := h.svc.Complete(ctx, id, user.OrgID, user.Email)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Report renders the assessment as a standalone HTML report.
func (h *AssessmentHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment ID"})
		return
	}

	html, err := h.reports.Render(ctx, id, user.OrgID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}
