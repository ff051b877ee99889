package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type AnalyticsUserStore interface {
	CountAll(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type AnalyticsRoleStore interface {
	Count(ctx context.Context) (int, error)
}

type AnalyticsAuditStore interface {
	CountByActionSince(ctx context.Context, action audit.Action, since time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type AnalyticsHandler struct {
	users AnalyticsUserStore
	roles AnalyticsRoleStore
	audit AnalyticsAuditStore
}

func NewAnalyticsHandler(users AnalyticsUserStore, roles AnalyticsRoleStore, auditStore AnalyticsAuditStore) *AnalyticsHandler {
	return &AnalyticsHandler{
		users: users,
		roles: roles,
		audit: auditStore,
	}
}

const (
	defaultWindowDays  = 7
	recentEventsLimit  = 10
	maxWindowDaysQuery = 365
)

type recentActivity struct {
	ID         string          `json:"id"`
	Action     audit.Action    `json:"action"`
	ActorEmail string          `json:"actorEmail"`
	Timestamp  time.Time       `json:"timestamp"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// GET /api/analytics
//
// Every call recomputes from the live store; nothing here is cached. The
// six sub-queries are independent, so they fan out concurrently.
func (h *AnalyticsHandler) GetAnalytics(ctx *gin.Context) {
	days := defaultWindowDays

	if v := ctx.Query("days"); v != "" {
		n, err := strconv.Atoi(v)

		if err != nil || n < 1 || n > maxWindowDaysQuery {
			RespondBadRequest(ctx, "days must be between 1 and 365", nil)
			return
		}

		days = n
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	var (
		totalUsers   int
		activeUsers  int
		totalRoles   int
		recentLogins int
		usersByRole  map[string]int
		recentEvents []audit.Event
	)

	g, gctx := errgroup.WithContext(cctx)

	g.Go(func() (err error) {
		totalUsers, err = h.users.CountAll(gctx)
		return
	})

	g.Go(func() (err error) {
		activeUsers, err = h.users.CountActive(gctx)
		return
	})

	g.Go(func() (err error) {
		totalRoles, err = h.roles.Count(gctx)
		return
	})

	g.Go(func() (err error) {
		recentLogins, err = h.audit.CountByActionSince(gctx, audit.ActionLoginSuccess, since)
		return
	})

	g.Go(func() (err error) {
		usersByRole, err = h.users.CountByRole(gctx)
		return
	})

	g.Go(func() (err error) {
		recentEvents, err = h.audit.Recent(gctx, recentEventsLimit)
		return
	})

	if err := g.Wait(); err != nil {
		RespondInternal(ctx, "Could not fetch analytics")
		return
	}

	activities := make([]recentActivity, 0, len(recentEvents))

	for _, e := range recentEvents {
		activities = append(activities, recentActivity{
			ID:         e.ID,
			Action:     e.Action,
			ActorEmail: e.Actor.Email,
			Timestamp:  e.CreatedAt,
			Details:    e.Details,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"overview": gin.H{
			"totalUsers":      totalUsers,
			"activeUsers":     activeUsers,
			"inactiveUsers":   totalUsers - activeUsers,
			"totalRoles":      totalRoles,
			"loginsLastNDays": recentLogins,
			"windowDays":      days,
		},
		"roleDistribution": usersByRole,
		"recentActivities": activities,
	})
}
