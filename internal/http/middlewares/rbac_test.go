package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/geocoder89/adminhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func roleRouter(gate gin.HandlerFunc, u *user.User) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	r.GET("/probe", func(c *gin.Context) {
		if u != nil {
			c.Set(middlewares.CtxUser, *u)
		}
		c.Next()
	}, gate, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

func probe(t *testing.T, r *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequireSuperAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *user.User
		wantStatus int
	}{
		{
			name:       "superadmin_passes",
			user:       &user.User{ID: "u-1", Role: "superadmin", IsActive: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin_rejected",
			user:       &user.User{ID: "u-2", Role: "admin", IsActive: true},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "case_variant_rejected",
			user:       &user.User{ID: "u-3", Role: "SuperAdmin", IsActive: true},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "upper_case_rejected",
			user:       &user.User{ID: "u-4", Role: "SUPERADMIN", IsActive: true},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing_identity",
			user:       nil,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := probe(t, roleRouter(middlewares.RequireSuperAdmin(), tt.user))

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		roles      []string
		user       *user.User
		wantStatus int
	}{
		{
			name:       "member_passes",
			roles:      []string{"admin", "superadmin"},
			user:       &user.User{ID: "u-1", Role: "admin", IsActive: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non_member_rejected",
			roles:      []string{"admin", "superadmin"},
			user:       &user.User{ID: "u-2", Role: "viewer", IsActive: true},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "exact_match_only",
			roles:      []string{"admin"},
			user:       &user.User{ID: "u-3", Role: "Admin", IsActive: true},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing_identity",
			roles:      []string{"admin"},
			user:       nil,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := probe(t, roleRouter(middlewares.RequireRole(tt.roles...), tt.user))

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
