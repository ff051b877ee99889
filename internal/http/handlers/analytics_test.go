package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeAnalyticsUserStore struct {
	countAllFn    func(ctx context.Context) (int, error)
	countActiveFn func(ctx context.Context) (int, error)
	countByRoleFn func(ctx context.Context) (map[string]int, error)
}

func (f *fakeAnalyticsUserStore) CountAll(ctx context.Context) (int, error) {
	return f.countAllFn(ctx)
}

func (f *fakeAnalyticsUserStore) CountActive(ctx context.Context) (int, error) {
	return f.countActiveFn(ctx)
}

func (f *fakeAnalyticsUserStore) CountByRole(ctx context.Context) (map[string]int, error) {
	return f.countByRoleFn(ctx)
}

type fakeAnalyticsRoleStore struct {
	countFn func(ctx context.Context) (int, error)
}

func (f *fakeAnalyticsRoleStore) Count(ctx context.Context) (int, error) {
	return f.countFn(ctx)
}

type fakeAnalyticsAuditStore struct {
	countByActionSinceFn func(ctx context.Context, action audit.Action, since time.Time) (int, error)
	recentFn             func(ctx context.Context, limit int) ([]audit.Event, error)
}

func (f *fakeAnalyticsAuditStore) CountByActionSince(ctx context.Context, action audit.Action, since time.Time) (int, error) {
	return f.countByActionSinceFn(ctx, action, since)
}

func (f *fakeAnalyticsAuditStore) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	return f.recentFn(ctx, limit)
}

func healthyAnalyticsFakes() (*fakeAnalyticsUserStore, *fakeAnalyticsRoleStore, *fakeAnalyticsAuditStore) {
	users := &fakeAnalyticsUserStore{
		countAllFn:    func(_ context.Context) (int, error) { return 12, nil },
		countActiveFn: func(_ context.Context) (int, error) { return 9, nil },
		countByRoleFn: func(_ context.Context) (map[string]int, error) {
			return map[string]int{"superadmin": 1, "admin": 3, "user": 8}, nil
		},
	}
	roles := &fakeAnalyticsRoleStore{
		countFn: func(_ context.Context) (int, error) { return 4, nil },
	}
	auditStore := &fakeAnalyticsAuditStore{
		countByActionSinceFn: func(_ context.Context, action audit.Action, _ time.Time) (int, error) {
			if action != audit.ActionLoginSuccess {
				return 0, errors.New("unexpected action " + string(action))
			}

			return 31, nil
		},
		recentFn: func(_ context.Context, limit int) ([]audit.Event, error) {
			events := make([]audit.Event, 0, limit)

			events = append(events, audit.Event{
				ID:        "e-1",
				Action:    audit.ActionUserCreated,
				Actor:     audit.Actor{Email: "admin@example.com"},
				CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			})

			return events, nil
		},
	}

	return users, roles, auditStore
}

func analyticsRouter(users *fakeAnalyticsUserStore, roles *fakeAnalyticsRoleStore, auditStore *fakeAnalyticsAuditStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	h := handlers.NewAnalyticsHandler(users, roles, auditStore)

	r.GET("/api/analytics", h.GetAnalytics)

	return r
}

func TestGetAnalytics(t *testing.T) {
	users, roles, auditStore := healthyAnalyticsFakes()

	var capturedSince time.Time

	base := auditStore.countByActionSinceFn
	auditStore.countByActionSinceFn = func(ctx context.Context, action audit.Action, since time.Time) (int, error) {
		capturedSince = since
		return base(ctx, action, since)
	}

	r := analyticsRouter(users, roles, auditStore)

	w := getPath(r, "/api/analytics")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Overview struct {
			TotalUsers      int `json:"totalUsers"`
			ActiveUsers     int `json:"activeUsers"`
			InactiveUsers   int `json:"inactiveUsers"`
			TotalRoles      int `json:"totalRoles"`
			LoginsLastNDays int `json:"loginsLastNDays"`
			WindowDays      int `json:"windowDays"`
		} `json:"overview"`
		RoleDistribution map[string]int `json:"roleDistribution"`
		RecentActivities []struct {
			ID         string `json:"id"`
			Action     string `json:"action"`
			ActorEmail string `json:"actorEmail"`
		} `json:"recentActivities"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}

	o := resp.Overview

	if o.TotalUsers != 12 || o.ActiveUsers != 9 || o.InactiveUsers != 3 {
		t.Fatalf("user counts %+v, want 12/9/3", o)
	}
	if o.TotalRoles != 4 || o.LoginsLastNDays != 31 || o.WindowDays != 7 {
		t.Fatalf("overview %+v, want roles=4 logins=31 window=7", o)
	}

	if resp.RoleDistribution["admin"] != 3 {
		t.Fatalf("role distribution %v not carried through", resp.RoleDistribution)
	}

	if len(resp.RecentActivities) != 1 || resp.RecentActivities[0].ActorEmail != "admin@example.com" {
		t.Fatalf("recent activities %+v not mapped", resp.RecentActivities)
	}

	wantSince := time.Now().UTC().AddDate(0, 0, -7)

	if d := capturedSince.Sub(wantSince); d < -time.Minute || d > time.Minute {
		t.Fatalf("since %v not ~7 days back", capturedSince)
	}
}

func TestGetAnalyticsCustomWindow(t *testing.T) {
	users, roles, auditStore := healthyAnalyticsFakes()
	r := analyticsRouter(users, roles, auditStore)

	w := getPath(r, "/api/analytics?days=30")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Overview struct {
			WindowDays int `json:"windowDays"`
		} `json:"overview"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.Overview.WindowDays != 30 {
		t.Fatalf("window %d, want 30", resp.Overview.WindowDays)
	}
}

func TestGetAnalyticsBadWindow(t *testing.T) {
	users, roles, auditStore := healthyAnalyticsFakes()
	r := analyticsRouter(users, roles, auditStore)

	for _, path := range []string{
		"/api/analytics?days=0",
		"/api/analytics?days=9000",
		"/api/analytics?days=soon",
	} {
		w := getPath(r, path)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got status %d, want 400", path, w.Code)
		}
	}
}

func TestGetAnalyticsSubQueryFault(t *testing.T) {
	users, roles, auditStore := healthyAnalyticsFakes()

	users.countByRoleFn = func(_ context.Context) (map[string]int, error) {
		return nil, errors.New("connection reset")
	}

	r := analyticsRouter(users, roles, auditStore)

	w := getPath(r, "/api/analytics")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500 (body %s)", w.Code, w.Body.String())
	}
}
