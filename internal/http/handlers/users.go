package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/geocoder89/adminhub/internal/repo/postgres"
	"github.com/geocoder89/adminhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserAdminStore interface {
	List(ctx context.Context, filter user.ListUsersFilter) ([]user.User, int, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type RoleReader interface {
	GetByName(ctx context.Context, name string) (role.Role, error)
}

type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

type UsersHandler struct {
	store UserAdminStore
	roles RoleReader
	audit Auditor
}

func NewUsersHandler(store UserAdminStore, roles RoleReader, auditor Auditor) *UsersHandler {
	return &UsersHandler{store: store, roles: roles, audit: auditor}
}

// GET /api/users
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	page, limit, ok := parsePageLimit(ctx)

	if !ok {
		return
	}

	filter := user.ListUsersFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if v := ctx.Query("role"); v != "" {
		filter.Role = &v
	}

	if v := ctx.Query("isActive"); v != "" {
		active, err := strconv.ParseBool(v)

		if err != nil {
			RespondBadRequest(ctx, "isActive must be a boolean", nil)
			return
		}

		filter.IsActive = &active
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, total, err := h.store.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": pageCount(total, limit),
		},
	})
}

// GET /api/users/:id
func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if !isUUID(id) {
		RespondBadRequest(ctx, "user id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// POST /api/users
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	actor, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	roleName := role.NormalizeName(req.Role)

	if roleName == "" {
		roleName = "user"
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	_, err := h.roles.GetByName(cctx, roleName)

	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			RespondBadRequest(ctx, "Unknown role: "+roleName, nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	now := time.Now().UTC()

	active := true

	if req.IsActive != nil {
		active = *req.IsActive
	}

	u := user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         roleName,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := h.store.Create(cctx, u)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		Action: audit.ActionUserCreated,
		Actor:  actorFrom(actor),
		Target: &audit.Target{UserID: &created.ID, Email: created.Email},
		Details: map[string]any{
			"role": created.Role,
		},
		Origin: originFrom(ctx),
	})

	ctx.JSON(http.StatusCreated, created)
}

// PUT /api/users/:id
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	actor, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !isUUID(id) {
		RespondBadRequest(ctx, "user id must be a valid UUID", nil)
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update user")
		return
	}

	changed := map[string]any{}

	if req.Name != nil && *req.Name != existing.Name {
		existing.Name = *req.Name
		changed["name"] = *req.Name
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))

		if email != existing.Email {
			existing.Email = email
			changed["email"] = email
		}
	}

	if req.Role != nil {
		roleName := role.NormalizeName(*req.Role)

		if roleName != existing.Role {
			_, err := h.roles.GetByName(cctx, roleName)

			if err != nil {
				if errors.Is(err, role.ErrNotFound) {
					RespondBadRequest(ctx, "Unknown role: "+roleName, nil)
					return
				}

				RespondInternal(ctx, "Could not update user")
				return
			}

			existing.Role = roleName
			changed["role"] = roleName
		}
	}

	if req.IsActive != nil && *req.IsActive != existing.IsActive {
		existing.IsActive = *req.IsActive
		changed["isActive"] = *req.IsActive
	}

	updated, err := h.store.Update(cctx, existing)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, postgres.ErrEmailAlreadyUsed):
			RespondConflict(ctx, "email_taken", "Email is already in use")
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		Action:  audit.ActionUserUpdated,
		Actor:   actorFrom(actor),
		Target:  &audit.Target{UserID: &updated.ID, Email: updated.Email},
		Details: map[string]any{"changes": changed},
		Origin:  originFrom(ctx),
	})

	ctx.JSON(http.StatusOK, updated)
}

// DELETE /api/users/:id
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	actor, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !isUUID(id) {
		RespondBadRequest(ctx, "user id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	target, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	// The bootstrap account is never deletable, regardless of who asks.
	if target.Role == role.SuperAdmin {
		RespondForbidden(ctx, "Cannot delete superadmin user")
		return
	}

	err = h.store.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		Action:  audit.ActionUserDeleted,
		Actor:   actorFrom(actor),
		Target:  &audit.Target{UserID: &target.ID, Email: target.Email},
		Details: map[string]any{"role": target.Role},
		Origin:  originFrom(ctx),
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// shared pagination parsing: 1-indexed pages, default page=1 limit=20

func parsePageLimit(ctx *gin.Context) (page, limit int, ok bool) {
	page = 1
	limit = 20

	if v := ctx.Query("page"); v != "" {
		n, err := strconv.Atoi(v)

		if err != nil || n < 1 {
			RespondBadRequest(ctx, "page must be a positive integer", nil)
			return 0, 0, false
		}

		page = n
	}

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)

		if err != nil || n < 1 {
			RespondBadRequest(ctx, "limit must be a positive integer", nil)
			return 0, 0, false
		}

		limit = n
	}

	return page, limit, true
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
