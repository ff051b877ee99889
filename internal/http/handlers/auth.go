package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/adminhub/internal/auth"
	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type LoginDoer interface {
	Login(ctx context.Context, email, password string, origin audit.Origin) (auth.LoginResult, error)
}

type AuthHandler struct {
	authn LoginDoer
	prom  *observability.Prom
}

func NewAuthHandler(authn LoginDoer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{authn: authn, prom: prom}
}

// Presence only. Malformed emails fall through to the credential check so
// the caller cannot distinguish them from a wrong password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	origin := audit.Origin{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.GetHeader("User-Agent"),
	}

	result, err := h.authn.Login(cctx, req.Email, req.Password, origin)

	if err != nil {
		h.countLogin(loginOutcome(err))

		var validationErr *auth.ValidationError

		switch {
		case errors.As(err, &validationErr):
			RespondBadRequest(ctx, validationErr.Msg, nil)
		case errors.Is(err, auth.ErrInvalidCredentials):
			// one message for unknown email and wrong password alike
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		case errors.Is(err, auth.ErrAccountInactive):
			RespondUnauthorized(ctx, "account_inactive", "Account is inactive")
		default:
			RespondInternal(ctx, "Login failed")
		}
		return
	}

	h.countLogin("success")

	ctx.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u.Public()})
}

func (h *AuthHandler) countLogin(outcome string) {
	if h.prom != nil {
		h.prom.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}

func loginOutcome(err error) string {
	var validationErr *auth.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, auth.ErrAccountInactive):
		return "inactive"
	default:
		return "error"
	}
}
