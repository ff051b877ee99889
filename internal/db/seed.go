package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/geocoder89/adminhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var systemRoles = []role.Role{
	{
		Name:        "superadmin",
		Description: "Super Administrator with full system access",
		Permissions: []string{
			role.PermReadUsers, role.PermCreateUsers, role.PermUpdateUsers, role.PermDeleteUsers,
			role.PermManageRoles, role.PermViewAuditLogs, role.PermViewAnalytics, role.PermManageSettings,
		},
		IsSystem: true,
	},
	{
		Name:        "admin",
		Description: "Administrator with limited access",
		Permissions: []string{role.PermReadUsers, role.PermCreateUsers, role.PermUpdateUsers, role.PermViewAnalytics},
		IsSystem:    true,
	},
	{
		Name:        "user",
		Description: "Regular user",
		Permissions: []string{role.PermReadUsers},
		IsSystem:    true,
	},
	{
		Name:        "viewer",
		Description: "View-only access",
		Permissions: []string{role.PermReadUsers},
		IsSystem:    true,
	},
}

// EnsureSeedData creates the system roles and the bootstrap superadmin user
// if they are missing. It never overwrites existing rows.
func EnsureSeedData(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	now := time.Now().UTC()

	for _, r := range systemRoles {
		_, err := pool.Exec(ctx,
			`INSERT INTO roles (id, name, description, permissions, is_system, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), r.Name, r.Description, r.Permissions, r.IsSystem, now, now,
		)

		if err != nil {
			return err
		}
	}

	return ensureSuperAdmin(ctx, pool, cfg, now)
}

func ensureSuperAdmin(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, now time.Time) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)`,
		uuid.NewString(), cfg.AdminName, cfg.AdminEmail, hash, role.SuperAdmin, now, now,
	)

	return err
}
