package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/models"

	"github.com/conformeahq/conformea/internal/middleware"
	"github.com/conformeahq/conformea/internal/service"
)

// EvidenceHandler handles evidence submission and validation requests.
type EvidenceHandler struct {
	svc *service.EvidenceService
	log *logger.Logger
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(svc *service.EvidenceService, log *logger.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		svc: svc,
		log: log.WithComponent("evidence-handler"),
	}
}

// SubmitEvidenceRequest is the body of POST /plans/{id}/evidence.
type SubmitEvidenceRequest struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Department   string              `json:"department"`
	EvidenceType models.EvidenceType `json:"evidenceType"`
}

// Submit attaches a new evidence record to an action plan.
func (h *EvidenceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid plan ID"})
		return
	}

	var req SubmitEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ev, err := h.svc.Submit(ctx, models.Evidence{
		OrgID:        user.OrgID,
		ActionPlanID: planID,
		Title:        req.Title,
		Description:  req.Description,
		Department:   req.Department,
		EvidenceType: req.EvidenceType,
		SubmittedBy:  user.Email,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, ev)
}

// Get returns one evidence record.
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid evidence ID"})
		return
	}

	ev, err := h.svc.Get(ctx, id, user.OrgID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, ev)
}

// ListByPlan returns the evidence attached to one action plan.
func (h *EvidenceHandler) ListByPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid plan ID"})
		return
	}

	evidence, err := h.svc.ListByPlan(ctx, planID, user.OrgID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, evidence)
}

// ValidateEvidenceRequest is the body of POST /evidence/{id}/validate.
type ValidateEvidenceRequest struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks"`
}

// Validate records the RSSI decision on a pending evidence record.
func (h *EvidenceHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid evidence ID"})
		return
	}

	var req ValidateEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ev, err := h.svc.Validate(ctx, service.ValidateInput{
		ID:        id,
		OrgID:     user.OrgID,
		Decision:  models.EvidenceStatus(req.Decision),
		Validator: user.Email,
		Remarks:   req.Remarks,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, ev)
}

// AmendRemarksRequest is the body of PATCH /evidence/{id}/remarks.
type AmendRemarksRequest struct {
	Remarks string `json:"remarks"`
}

// AmendRemarks updates the reviewer remarks on an already-decided record.
func (h *EvidenceHandler) AmendRemarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid evidence ID"})
		return
	}

	var req AmendRemarksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ev, err := h.svc.AmendRemarks(ctx, id, user.OrgID, req.Remarks)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, ev)
}
