package role

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("role not found")
	ErrAlreadyExists = errors.New("role already exists")
)

// SuperAdmin is the reserved bootstrap role. Its sole holder cannot be
// deleted and routes guarded by RequireSuperAdmin compare against this
// literal.
const SuperAdmin = "superadmin"

// Permission tags a role may carry. They are informational: authorization
// decisions are made on the role name, not on this list.
const (
	PermReadUsers      = "read_users"
	PermCreateUsers    = "create_users"
	PermUpdateUsers    = "update_users"
	PermDeleteUsers    = "delete_users"
	PermManageRoles    = "manage_roles"
	PermViewAuditLogs  = "view_audit_logs"
	PermViewAnalytics  = "view_analytics"
	PermManageSettings = "manage_settings"
)

var validPermissions = map[string]struct{}{
	PermReadUsers:      {},
	PermCreateUsers:    {},
	PermUpdateUsers:    {},
	PermDeleteUsers:    {},
	PermManageRoles:    {},
	PermViewAuditLogs:  {},
	PermViewAnalytics:  {},
	PermManageSettings: {},
}

func IsValidPermission(p string) bool {
	_, ok := validPermissions[p]
	return ok
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NormalizeName applies the storage form for role names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type AssignRoleRequest struct {
	UserID   string `json:"userId" binding:"required"`
	RoleName string `json:"roleName" binding:"required"`
}
