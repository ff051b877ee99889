package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/gin-gonic/gin"
)

type AuditQueryStore interface {
	List(ctx context.Context, filter audit.ListFilter) ([]audit.Event, int, error)
	GetByID(ctx context.Context, id string) (audit.Event, error)
}

type AuditLogsHandler struct {
	store AuditQueryStore
}

func NewAuditLogsHandler(store AuditQueryStore) *AuditLogsHandler {
	return &AuditLogsHandler{store: store}
}

// GET /api/audit-logs
func (h *AuditLogsHandler) GetAuditLogs(ctx *gin.Context) {
	page, limit, ok := parsePageLimit(ctx)

	if !ok {
		return
	}

	filter := audit.ListFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if v := ctx.Query("action"); v != "" {
		action := audit.Action(v)

		if !action.Valid() {
			RespondBadRequest(ctx, "Unknown action: "+v, nil)
			return
		}

		filter.Action = &action
	}

	if v := ctx.Query("actorId"); v != "" {
		if !isUUID(v) {
			RespondBadRequest(ctx, "actorId must be a valid UUID", nil)
			return
		}

		filter.ActorID = &v
	}

	startDate, ok := parseDateQuery(ctx, "startDate")

	if !ok {
		return
	}

	filter.StartDate = startDate

	endDate, ok := parseDateQuery(ctx, "endDate")

	if !ok {
		return
	}

	filter.EndDate = endDate

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	events, total, err := h.store.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not fetch audit logs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"logs": events,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": pageCount(total, limit),
		},
	})
}

// GET /api/audit-logs/:id
func (h *AuditLogsHandler) GetAuditLogByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if !isUUID(id) {
		RespondBadRequest(ctx, "audit log id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	event, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			RespondNotFound(ctx, "Audit log not found")
			return
		}

		RespondInternal(ctx, "Could not fetch audit log")
		return
	}

	// events never change once written, so an ETag is safe here
	RespondJSONWithETag(ctx, http.StatusOK, event)
}

// parseDateQuery accepts RFC 3339 or a bare date. Bounds are inclusive.
func parseDateQuery(ctx *gin.Context, name string) (*time.Time, bool) {
	v := ctx.Query(name)

	if v == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, v)

	if err != nil {
		t, err = time.Parse("2006-01-02", v)
	}

	if err != nil {
		RespondBadRequest(ctx, name+" must be an RFC 3339 datetime or YYYY-MM-DD date", nil)
		return nil, false
	}

	t = t.UTC()

	return &t, true
}
