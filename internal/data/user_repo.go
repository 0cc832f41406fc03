// Package data implements the persistence ports over PostgreSQL.
package data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimanage/farmreg/internal/domain/model"
)

const userColumns = `id, email, password_hash, roles, is_active, assigned_districts,
	last_login, created_by, created_at, updated_at`

// UserRepo provides account storage backed by the users table.
type UserRepo struct {
	pool  *pgxpool.Pool
	clock TimeProvider
}

func NewUserRepo(pool *pgxpool.Pool, clock TimeProvider) *UserRepo {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &UserRepo{pool: pool, clock: clock}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := r.clock.Now()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, roles, is_active, assigned_districts, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+userColumns,
		user.Email, user.PasswordHash, model.RoleStrings(user.Roles),
		user.Active, user.AssignedDistricts, user.CreatedBy, now)
	return scanUser(row)
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login = $2, updated_at = $3 WHERE email = $1`,
		email, at, r.clock.Now())
	return classify(err, "user")
}

func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE email = $1`,
		email, passwordHash, r.clock.Now())
	if err != nil {
		return classify(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return classify(errNoRows, "user")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u     model.User
		roles []string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &roles, &u.Active, &u.AssignedDistricts,
		&u.LastLogin, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, classify(err, "user")
	}
	u.Roles = model.NormalizeRoles(roles)
	return &u, nil
}
