package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaign-platform/pkg/utils"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository reads and writes users and their tenant memberships.
type Repository struct {
	db utils.Querier
}

func NewRepository(db utils.Querier) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, full_name, is_super_admin, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsSuperAdmin,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// GetByEmail matches case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, q, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, q, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, err
}

// Create inserts u. A unique violation on email maps to ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, email, password_hash, full_name, is_super_admin, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.Exec(ctx, q,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FullName,
		u.IsSuperAdmin,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Delete removes the user row. Missing rows are not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.Exec(ctx, q, id, at); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

const membershipSelect = `
SELECT t.id, t.name, t.slug, tu.role, tu.created_at
FROM tenant_users tu
JOIN tenants t ON t.id = tu.tenant_id
WHERE tu.user_id = $1 AND tu.is_active AND t.is_active
`

// ActiveMemberships lists the user's active memberships in active tenants, oldest first.
func (r *Repository) ActiveMemberships(ctx context.Context, userID string) ([]Membership, error) {
	rows, err := r.db.Query(ctx, membershipSelect+` ORDER BY tu.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	out := []Membership{}
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.TenantID, &m.TenantName, &m.TenantSlug, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return out, nil
}

// ActiveMembership returns ErrNotFound when the user has no active membership
// in tenantID or the tenant itself is inactive or absent.
func (r *Repository) ActiveMembership(ctx context.Context, userID, tenantID string) (Membership, error) {
	var m Membership
	err := r.db.QueryRow(ctx, membershipSelect+` AND tu.tenant_id = $2`, userID, tenantID).
		Scan(&m.TenantID, &m.TenantName, &m.TenantSlug, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}
