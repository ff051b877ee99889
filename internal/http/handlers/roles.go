package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/adminhub/internal/cache"
	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/geocoder89/adminhub/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RoleStore interface {
	List(ctx context.Context) ([]role.Role, error)
	GetByName(ctx context.Context, name string) (role.Role, error)
	Create(ctx context.Context, r role.Role) (role.Role, error)
}

type RoleUserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

type RolesHandler struct {
	store RoleStore
	users RoleUserStore
	audit Auditor

	// role rows change rarely; a short TTL keeps list reads off the DB
	listCache *cache.Cache[[]role.Role]
}

const roleListCacheKey = "roles:list"

func NewRolesHandler(store RoleStore, users RoleUserStore, auditor Auditor) *RolesHandler {
	return &RolesHandler{
		store:     store,
		users:     users,
		audit:     auditor,
		listCache: cache.New[[]role.Role](30 * time.Second),
	}
}

// GET /api/roles
func (h *RolesHandler) GetRoles(ctx *gin.Context) {
	if roles, ok := h.listCache.Get(roleListCacheKey); ok {
		ctx.JSON(http.StatusOK, gin.H{"roles": roles})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	roles, err := h.store.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not fetch roles")
		return
	}

	h.listCache.Set(roleListCacheKey, roles)

	ctx.JSON(http.StatusOK, gin.H{"roles": roles})
}

// POST /api/roles
func (h *RolesHandler) CreateRole(ctx *gin.Context) {
	actor, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req role.CreateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := role.NormalizeName(req.Name)

	if name == "" {
		RespondBadRequest(ctx, "Role name is required", nil)
		return
	}

	for _, p := range req.Permissions {
		if !role.IsValidPermission(p) {
			RespondBadRequest(ctx, "Unknown permission: "+p, nil)
			return
		}
	}

	permissions := req.Permissions

	if permissions == nil {
		permissions = []string{}
	}

	now := time.Now().UTC()

	r := role.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		Permissions: permissions,
		IsSystem:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.store.Create(cctx, r)

	if err != nil {
		if errors.Is(err, role.ErrAlreadyExists) {
			RespondConflict(ctx, "role_exists", "Role already exists")
			return
		}

		RespondInternal(ctx, "Could not create role")
		return
	}

	h.listCache.Delete(roleListCacheKey)

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		Action: audit.ActionRoleCreated,
		Actor:  actorFrom(actor),
		Details: map[string]any{
			"roleName":    created.Name,
			"permissions": created.Permissions,
		},
		Origin: originFrom(ctx),
	})

	ctx.JSON(http.StatusCreated, created)
}

// POST /api/roles/assign
func (h *RolesHandler) AssignRole(ctx *gin.Context) {
	actor, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req role.AssignRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !isUUID(req.UserID) {
		RespondBadRequest(ctx, "userId must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	target, err := h.users.GetByID(cctx, req.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not assign role")
		return
	}

	r, err := h.store.GetByName(cctx, req.RoleName)

	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			RespondNotFound(ctx, "Role not found")
			return
		}

		RespondInternal(ctx, "Could not assign role")
		return
	}

	previousRole := target.Role
	target.Role = r.Name

	updated, err := h.users.Update(cctx, target)

	if err != nil {
		RespondInternal(ctx, "Could not assign role")
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		Action: audit.ActionRoleAssigned,
		Actor:  actorFrom(actor),
		Target: &audit.Target{UserID: &updated.ID, Email: updated.Email},
		Details: map[string]any{
			"previousRole": previousRole,
			"newRole":      r.Name,
		},
		Origin: originFrom(ctx),
	})

	ctx.JSON(http.StatusOK, updated)
}
