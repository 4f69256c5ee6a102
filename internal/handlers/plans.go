package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"

	"github.com/conformeahq/conformea/internal/middleware"
	"github.com/conformeahq/conformea/internal/service"
)

// PlanHandler handles action plan requests.
type PlanHandler struct {
	svc *service.PlanService
	log *logger.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(svc *service.PlanService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{
		svc: svc,
		log: log.WithComponent("plan-handler"),
	}
}

// GeneratePlansRequest is the body of POST /plans/generate.
type GeneratePlansRequest struct {
	Framework      string     `json:"framework"`
	FromAssessment *uuid.UUID `json:"fromAssessment,omitempty"`
}

// Generate derives action plans from the framework baselines or from an
// assessment's gap analysis.
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req GeneratePlansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	plans, err := h.svc.GeneratePlans(ctx, service.GeneratePlansInput{
		OrgID:          user.OrgID,
		Framework:      maturity.FrameworkType(req.Framework),
		FromAssessment: req.FromAssessment,
		Actor:          user.Email,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, plans)
}

// Create adds a manually authored action plan.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var plan models.ActionPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	plan.OrgID = user.OrgID

	created, err := h.svc.CreatePlan(ctx, plan)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get returns one action plan.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid plan ID"})
		return
	}

	plan, err := h.svc.GetPlan(ctx, id, user.OrgID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// List returns the organization's action plans, filtered and paginated.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	params := service.ListPlansParams{OrgID: user.OrgID}

	if f := r.URL.Query().Get("framework"); f != "" {
		params.Framework = &f
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.PlanStatus(s)
		params.Status = &status
	}
	if p := r.URL.Query().Get("priority"); p != "" {
		priority := models.Priority(p)
		params.Priority = &priority
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		params.Limit = int32(l)
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		params.Offset = int32(o)
	}

	plans, err := h.svc.ListPlans(ctx, params)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, plans)
}

// UpdatePlanRequest is the body of PATCH /plans/{id}. Absent fields are
// left untouched.
type UpdatePlanRequest struct {
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Assignee             *string    `json:"assignee,omitempty"`
	DueDate              *time.Time `json:"dueDate,omitempty"`
	EstimatedEffort      *string    `json:"estimatedEffort,omitempty"`
	BusinessImpact       *string    `json:"businessImpact,omitempty"`
	CompletionPercentage *int       `json:"completionPercentage,omitempty"`
}

// Update applies a partial edit to an action plan.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid plan ID"})
		return
	}

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	plan, err := h.svc.UpdatePlan(ctx, id, user.OrgID, service.UpdatePlanInput{
		Title:                req.Title,
		Description:          req.Description,
		Assignee:             req.Assignee,
		DueDate:              req.DueDate,
		EstimatedEffort:      req.EstimatedEffort,
		BusinessImpact:       req.BusinessImpact,
		CompletionPercentage: req.CompletionPercentage,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// TransitionRequest is the body of PUT /plans/{id}/status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// Transition moves an action plan through its status machine.
func (h *PlanHandler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid plan ID"})
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	plan, err := h.svc.TransitionStatus(ctx, id, user.OrgID, models.PlanStatus(req.Status), user.Email)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}
