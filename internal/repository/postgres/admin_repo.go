// internal/repository/postgres/admin_repo.go
package postgres

import (
	"context"
	"fmt"

	"billing-service/internal/domain/admin"
	xerrors "billing-service/internal/pkg/errors"
)

type AdminRepository struct {
	db *DB
}

func NewAdminRepository(db *DB) *AdminRepository {
	return &AdminRepository{db: db}
}

var _ admin.Repository = (*AdminRepository)(nil)

func (r *AdminRepository) Create(ctx context.Context, a *admin.Admin) error {
	query := `
		INSERT INTO admins (full_name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.q(ctx).QueryRow(ctx, query, a.FullName, a.Email, a.PasswordHash, a.Role, a.IsActive).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapError(err, "admin not found")
	}

	return nil
}

// FindByEmail retrieves an operator by email, ignoring case
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, is_active, last_login, created_at, updated_at
		FROM admins
		WHERE LOWER(email) = LOWER($1)
	`
	return r.scanOne(ctx, query, email)
}

func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*admin.Admin, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, is_active, last_login, created_at, updated_at
		FROM admins
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	result, err := r.db.q(ctx).Exec(ctx, `UPDATE admins SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.NotFound("admin not found")
	}

	return nil
}

func (r *AdminRepository) CountByRole(ctx context.Context, role admin.Role) (int64, error) {
	var n int64
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admins WHERE role = $1`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

func (r *AdminRepository) scanOne(ctx context.Context, query string, arg interface{}) (*admin.Admin, error) {
	var a admin.Admin
	err := r.db.q(ctx).QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &a.Role, &a.IsActive,
		&a.LastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "admin not found")
	}
	return &a, nil
}
