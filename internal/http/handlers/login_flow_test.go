package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/adminhub/internal/auth"
	rec "github.com/geocoder89/adminhub/internal/audit"
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/geocoder89/adminhub/internal/http/handlers"
	"github.com/geocoder89/adminhub/internal/http/middlewares"
	"github.com/geocoder89/adminhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// In-memory stand-ins so the whole login-to-trail pipeline runs without
// external services.

type memUserStore struct {
	users map[string]user.User
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (m *memUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	u, ok := m.users[id]

	if !ok {
		return user.ErrNotFound
	}

	u.LastLogin = &at
	m.users[id] = u

	return nil
}

type memAuditStore struct {
	events []audit.Event
}

func (m *memAuditStore) Insert(_ context.Context, event audit.Event) error {
	m.events = append(m.events, event)
	return nil
}

// List serves newest-first, ties broken by insertion order, like the real
// store does.
func (m *memAuditStore) List(_ context.Context, filter audit.ListFilter) ([]audit.Event, int, error) {
	matched := make([]audit.Event, 0, len(m.events))

	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]

		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}

		matched = append(matched, e)
	}

	total := len(matched)

	if filter.Offset >= total {
		return []audit.Event{}, total, nil
	}

	end := filter.Offset + filter.Limit

	if end > total {
		end = total
	}

	return matched[filter.Offset:end], total, nil
}

func (m *memAuditStore) GetByID(_ context.Context, id string) (audit.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}

	return audit.Event{}, audit.ErrNotFound
}

func pipelineRouter(t *testing.T, users *memUserStore, auditStore *memAuditStore) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	recorder := rec.NewRecorder(auditStore, log, nil)
	jwtManager := auth.NewManager("test-secret-key", time.Hour)
	authenticator := auth.NewAuthenticator(users, recorder, jwtManager)

	authHandler := handlers.NewAuthHandler(authenticator, nil)
	auditHandler := handlers.NewAuditLogsHandler(auditStore)
	authMW := middlewares.NewAuthMiddleware(jwtManager, users)

	r := gin.New()

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(authMW.RequireAuth())
	authed.GET("/audit-logs", middlewares.RequireSuperAdmin(), auditHandler.GetAuditLogs)

	return r
}

func TestLoginToAuditTrailPipeline(t *testing.T) {
	hash, err := security.HashPassword("Sup3rSecret!")

	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	adminID := uuid.NewString()

	users := &memUserStore{
		users: map[string]user.User{
			adminID: {
				ID:           adminID,
				Name:         "Root",
				Email:        "root@example.com",
				PasswordHash: hash,
				Role:         role.SuperAdmin,
				IsActive:     true,
			},
		},
	}
	auditStore := &memAuditStore{}
	r := pipelineRouter(t, users, auditStore)

	// wrong password first
	w := doJSON(r, http.MethodPost, "/api/auth/login", `{"email":"root@example.com","password":"wrong"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: got status %d, want 401 (body %s)", w.Code, w.Body.String())
	}

	// then the real one
	w = doJSON(r, http.MethodPost, "/api/auth/login", `{"email":"root@example.com","password":"Sup3rSecret!"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("login: got status %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var loginResp struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("bad login response: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatal("login response carries no token")
	}
	if loginResp.User.Role != role.SuperAdmin {
		t.Fatalf("login user role %q, want superadmin", loginResp.User.Role)
	}

	if u := users.users[adminID]; u.LastLogin == nil {
		t.Fatal("last login not updated on success")
	}

	// the trail is only readable with the token
	w = doJSON(r, http.MethodGet, "/api/audit-logs", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated trail read: got status %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)

	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)

	if rec2.Code != http.StatusOK {
		t.Fatalf("trail read: got status %d, want 200 (body %s)", rec2.Code, rec2.Body.String())
	}

	var trail struct {
		Logs []struct {
			Action string `json:"action"`
			Actor  struct {
				UserID *string `json:"userId"`
				Email  string  `json:"email"`
			} `json:"actor"`
		} `json:"logs"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}

	if err := json.Unmarshal(rec2.Body.Bytes(), &trail); err != nil {
		t.Fatalf("bad trail response: %v", err)
	}

	if trail.Pagination.Total != 2 {
		t.Fatalf("trail holds %d events, want failed plus success", trail.Pagination.Total)
	}

	// newest first: the successful login, then the failed attempt
	if trail.Logs[0].Action != string(audit.ActionLoginSuccess) {
		t.Fatalf("first event %q, want login_success", trail.Logs[0].Action)
	}
	if trail.Logs[1].Action != string(audit.ActionLoginFailed) {
		t.Fatalf("second event %q, want login_failed", trail.Logs[1].Action)
	}
	if trail.Logs[1].Actor.UserID == nil || *trail.Logs[1].Actor.UserID != adminID {
		t.Fatalf("failed attempt actor %v, want the known user id", trail.Logs[1].Actor.UserID)
	}

	// filtering by action narrows the trail
	req = httptest.NewRequest(http.MethodGet, "/api/audit-logs?action=login_failed", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)

	rec3 := httptest.NewRecorder()
	r.ServeHTTP(rec3, req)

	if rec3.Code != http.StatusOK {
		t.Fatalf("filtered read: got status %d, want 200", rec3.Code)
	}

	if err := json.Unmarshal(rec3.Body.Bytes(), &trail); err != nil {
		t.Fatalf("bad filtered response: %v", err)
	}
	if trail.Pagination.Total != 1 || trail.Logs[0].Action != string(audit.ActionLoginFailed) {
		t.Fatalf("filtered trail %+v, want only the failed attempt", trail)
	}
}

func TestInactiveUserTokenStopsWorking(t *testing.T) {
	hash, err := security.HashPassword("Sup3rSecret!")

	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	adminID := uuid.NewString()

	users := &memUserStore{
		users: map[string]user.User{
			adminID: {
				ID:           adminID,
				Email:        "root@example.com",
				PasswordHash: hash,
				Role:         role.SuperAdmin,
				IsActive:     true,
			},
		},
	}
	auditStore := &memAuditStore{}
	r := pipelineRouter(t, users, auditStore)

	w := doJSON(r, http.MethodPost, "/api/auth/login", `{"email":"root@example.com","password":"Sup3rSecret!"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("login: got status %d, want 200", w.Code)
	}

	var loginResp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("bad login response: %v", err)
	}

	// deactivate after the token was minted
	u := users.users[adminID]
	u.IsActive = false
	users.users[adminID] = u

	req := httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated user: got status %d, want 401 (body %s)", w2.Code, w2.Body.String())
	}
	if !strings.Contains(w2.Body.String(), "User not found or inactive") {
		t.Fatalf("body %s missing the gate message", w2.Body.String())
	}
}
