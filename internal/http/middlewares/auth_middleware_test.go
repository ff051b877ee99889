package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/adminhub/internal/auth"
	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/geocoder89/adminhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type fakeUserLoader struct {
	getByIDFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.getByIDFn(ctx, id)
}

func authRouter(t *testing.T, jwtm *auth.Manager, loader *fakeUserLoader) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	r := gin.New()
	mw := middlewares.NewAuthMiddleware(jwtm, loader)

	r.GET("/probe", mw.RequireAuth(), func(c *gin.Context) {
		u, ok := middlewares.CurrentUser(c)

		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user in context"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
	})

	return r
}

func TestRequireAuthRejections(t *testing.T) {
	jwtm := auth.NewManager("test-secret", time.Hour)

	goodToken, err := jwtm.Mint("u-1", "jane@example.com", "admin")

	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	expiredManager := auth.NewManager("test-secret", time.Millisecond)
	expiredToken, err := expiredManager.Mint("u-1", "jane@example.com", "admin")

	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	tests := []struct {
		name       string
		header     string
		loader     *fakeUserLoader
		wantStatus int
	}{
		{
			name:       "no_header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong_scheme",
			header:     "Token " + goodToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bare_bearer",
			header:     "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage_token",
			header:     "Bearer not-a-jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired_token",
			header:     "Bearer " + expiredToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "user_deleted",
			header: "Bearer " + goodToken,
			loader: &fakeUserLoader{
				getByIDFn: func(_ context.Context, _ string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				},
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "user_deactivated",
			header: "Bearer " + goodToken,
			loader: &fakeUserLoader{
				getByIDFn: func(_ context.Context, _ string) (user.User, error) {
					return user.User{ID: "u-1", Role: "admin", IsActive: false}, nil
				},
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "store_fault",
			header: "Bearer " + goodToken,
			loader: &fakeUserLoader{
				getByIDFn: func(_ context.Context, _ string) (user.User, error) {
					return user.User{}, errors.New("connection reset")
				},
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			loader := tt.loader

			if loader == nil {
				loader = &fakeUserLoader{
					getByIDFn: func(_ context.Context, _ string) (user.User, error) {
						t.Fatal("store must not be consulted before token verification")
						return user.User{}, nil
					},
				}
			}

			r := authRouter(t, jwtm, loader)

			req := httptest.NewRequest(http.MethodGet, "/probe", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireAuthAttachesLiveUser(t *testing.T) {
	jwtm := auth.NewManager("test-secret", time.Hour)

	// role in the token is stale on purpose, the gate must use the stored one
	token, err := jwtm.Mint("u-1", "jane@example.com", "user")

	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	loader := &fakeUserLoader{
		getByIDFn: func(_ context.Context, id string) (user.User, error) {
			if id != "u-1" {
				t.Fatalf("loaded %q, want u-1", id)
			}

			return user.User{ID: "u-1", Email: "jane@example.com", Role: "admin", IsActive: true}, nil
		},
	}

	r := authRouter(t, jwtm, loader)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	body := w.Body.String()

	if !strings.Contains(body, `"role":"admin"`) {
		t.Fatalf("handler did not see the stored role: %s", body)
	}
}
