package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/conformeahq/conformea/pkg/audit"
	"github.com/conformeahq/conformea/pkg/logger"

	"github.com/conformeahq/conformea/internal/middleware"
)

// AuditTrail reads back persisted audit entries.
type AuditTrail interface {
	Query(ctx context.Context, filters audit.QueryFilters) ([]audit.Row, error)
}

// AuditHandler serves the organization's audit trail.
type AuditHandler struct {
	trail AuditTrail
	log   *logger.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(trail AuditTrail, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		trail: trail,
		log:   log.WithComponent("audit-handler"),
	}
}

// List returns the organization's audit entries, newest first. Filters come
// from query parameters: actor, actorType, action, resourceType, resourceId,
// status, from, to (RFC 3339), limit, offset.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	q := r.URL.Query()
	filters := audit.QueryFilters{
		OrgID:        user.OrgID,
		ActorID:      q.Get("actor"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resourceType"),
		ResourceID:   q.Get("resourceId"),
	}

	if at := q.Get("actorType"); at != "" {
		switch audit.ActorType(at) {
		case audit.ActorTypeUser, audit.ActorTypeSystem, audit.ActorTypeAPIKey:
			filters.ActorType = audit.ActorType(at)
		default:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown actor type", Field: "actorType"})
			return
		}
	}
	if st := q.Get("status"); st != "" {
		switch audit.Status(st) {
		case audit.StatusSuccess, audit.StatusFailure, audit.StatusDenied:
			filters.Status = audit.Status(st)
		default:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown status", Field: "status"})
			return
		}
	}
	if from := q.Get("from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid timestamp", Field: "from"})
			return
		}
		filters.StartTime = ts
	}
	if to := q.Get("to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid timestamp", Field: "to"})
			return
		}
		filters.EndTime = ts
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		filters.Limit = l
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o > 0 {
		filters.Offset = o
	}

	rows, err := h.trail.Query(ctx, filters)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if rows == nil {
		rows = []audit.Row{}
	}

	writeJSON(w, http.StatusOK, rows)
}
