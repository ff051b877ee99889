package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RolesRepo struct {
	pool *pgxpool.Pool
}

func NewRolesRepo(pool *pgxpool.Pool) *RolesRepo {
	return &RolesRepo{pool: pool}
}

func (r *RolesRepo) List(ctx context.Context) ([]role.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, permissions, is_system, created_at, updated_at
         FROM roles
         ORDER BY name ASC`,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []role.Role

	for rows.Next() {
		var ro role.Role

		err = rows.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.Permissions, &ro.IsSystem, &ro.CreatedAt, &ro.UpdatedAt)

		if err != nil {
			return nil, err
		}

		out = append(out, ro)
	}

	return out, rows.Err()
}

func (r *RolesRepo) GetByName(ctx context.Context, name string) (role.Role, error) {
	var ro role.Role

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, permissions, is_system, created_at, updated_at
         FROM roles
         WHERE name = $1`,
		role.NormalizeName(name),
	).Scan(&ro.ID, &ro.Name, &ro.Description, &ro.Permissions, &ro.IsSystem, &ro.CreatedAt, &ro.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role.Role{}, role.ErrNotFound
		}

		return role.Role{}, err
	}

	return ro, nil
}

func (r *RolesRepo) Create(ctx context.Context, ro role.Role) (role.Role, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (id, name, description, permissions, is_system, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ro.ID, ro.Name, ro.Description, ro.Permissions, ro.IsSystem, ro.CreatedAt, ro.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return role.Role{}, role.ErrAlreadyExists
		}

		return role.Role{}, err
	}

	return ro, nil
}

func (r *RolesRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n)
	return n, err
}
