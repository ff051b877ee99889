package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/geocoder89/adminhub/internal/security"
)

// Keep these interfaces small so tests can fake them easily.

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Authenticator struct {
	users UserStore
	audit Auditor
	jwt   *Manager
}

func NewAuthenticator(users UserStore, auditor Auditor, jwt *Manager) *Authenticator {
	return &Authenticator{
		users: users,
		audit: auditor,
		jwt:   jwt,
	}
}

type LoginResult struct {
	Token string
	User  user.PublicUser
}

// Login verifies credentials and issues a session token.
//
// Failed attempts are audited with the supplied email (and the resolved user
// id once one exists). The inactive-account path records nothing.
func (a *Authenticator) Login(ctx context.Context, email, password string, origin audit.Origin) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, &ValidationError{Msg: "email and password are required"}
	}

	email = strings.ToLower(strings.TrimSpace(email))

	u, err := a.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			a.audit.Record(ctx, audit.Entry{
				Action:  audit.ActionLoginFailed,
				Actor:   audit.Actor{UserID: nil, Email: email},
				Details: map[string]any{"reason": "user not found"},
				Origin:  origin,
			})

			return LoginResult{}, ErrInvalidCredentials
		}

		return LoginResult{}, fmt.Errorf("look up user: %w", err)
	}

	if !u.IsActive {
		return LoginResult{}, ErrAccountInactive
	}

	err = security.CheckPassword(u.PasswordHash, password)

	if err != nil {
		a.audit.Record(ctx, audit.Entry{
			Action:  audit.ActionLoginFailed,
			Actor:   audit.Actor{UserID: &u.ID, Email: u.Email},
			Details: map[string]any{"reason": "invalid password"},
			Origin:  origin,
		})

		return LoginResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()

	err = a.users.UpdateLastLogin(ctx, u.ID, now)

	if err != nil {
		return LoginResult{}, fmt.Errorf("update last login: %w", err)
	}

	a.audit.Record(ctx, audit.Entry{
		Action:  audit.ActionLoginSuccess,
		Actor:   audit.Actor{UserID: &u.ID, Email: u.Email},
		Details: map[string]any{"role": u.Role},
		Origin:  origin,
	})

	token, err := a.jwt.Mint(u.ID, u.Email, u.Role)

	if err != nil {
		return LoginResult{}, fmt.Errorf("mint token: %w", err)
	}

	return LoginResult{Token: token, User: u.Public()}, nil
}
