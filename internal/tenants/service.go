// Package tenants implements super-admin tenant administration.
package tenants

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"campaign-platform/internal/apperr"
	"campaign-platform/internal/audit"
	"campaign-platform/internal/rbac"
	"campaign-platform/internal/users"
	"campaign-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Service administers tenants and their memberships.
//
// Invariants:
//   - Deleting a tenant removes its signatures, petitions, memberships and the
//     tenant row in one transaction; nothing is left orphaned on failure.
//   - A user who loses their last membership, by RemoveMember or Delete, is removed
//     too unless they are a super admin. Their refresh tokens go with them.
type Service struct {
	db    utils.DB
	users *users.Repository
	audit *audit.Service
	clock func() time.Time
}

func NewService(db utils.DB, a *audit.Service) *Service {
	return &Service{db: db, users: users.NewRepository(db), audit: a, clock: time.Now}
}

var (
	errTenantNotFound     = errors.New("tenant not found")
	errMembershipNotFound = errors.New("membership not found")

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (Tenant, error) {
	name := strings.TrimSpace(req.Name)
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if name == "" || slug == "" {
		return Tenant{}, apperr.Validation("name and slug are required")
	}
	if !slugPattern.MatchString(slug) {
		return Tenant{}, apperr.Validation("slug may contain only lowercase letters, digits and dashes")
	}

	t := Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: s.clock().UTC(),
	}
	const q = `INSERT INTO tenants (id, name, slug, is_active, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.Exec(ctx, q, t.ID, t.Name, t.Slug, t.IsActive, t.CreatedAt); err != nil {
		if utils.IsUniqueViolation(err) {
			return Tenant{}, apperr.Conflict("tenant slug already exists", err)
		}
		return Tenant{}, apperr.Unexpected(fmt.Errorf("insert tenant: %w", err))
	}

	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeTenantCreated, ActorUserID: actorID, TenantID: t.ID})
	return t, nil
}

// AddMember attaches the user registered under req.Email to tenantID.
// Role defaults to member.
func (s *Service) AddMember(ctx context.Context, actorID, tenantID string, req AddMemberRequest) (Member, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return Member{}, apperr.NotFound("tenant not found")
	}
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return Member{}, apperr.Validation("email is required")
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = rbac.RoleMember
	}
	if !rbac.IsValidRole(role) {
		return Member{}, apperr.Validation("role must be one of owner, admin, member")
	}

	if err := s.tenantExists(ctx, tenantID); err != nil {
		return Member{}, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Member{}, apperr.NotFound("user not found")
		}
		return Member{}, apperr.Unexpected(err)
	}

	m := Member{TenantID: tenantID, UserID: u.ID, Role: role, IsActive: true, CreatedAt: s.clock().UTC()}
	const q = `INSERT INTO tenant_users (tenant_id, user_id, role, is_active, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.Exec(ctx, q, m.TenantID, m.UserID, m.Role, m.IsActive, m.CreatedAt); err != nil {
		if utils.IsUniqueViolation(err) {
			return Member{}, apperr.Conflict("user already belongs to tenant", err)
		}
		return Member{}, apperr.Unexpected(fmt.Errorf("insert tenant user: %w", err))
	}

	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeMemberAdded, ActorUserID: actorID, TenantID: tenantID, TargetID: u.ID})
	return m, nil
}

// Delete removes a tenant and everything it owns.
func (s *Service) Delete(ctx context.Context, actorID, tenantID string) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return apperr.NotFound("tenant not found")
	}

	err := utils.WithTx(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM signatures WHERE petition_id IN (SELECT id FROM petitions WHERE tenant_id = $1)`, tenantID); err != nil {
			return fmt.Errorf("delete signatures: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM petitions WHERE tenant_id = $1`, tenantID); err != nil {
			return fmt.Errorf("delete petitions: %w", err)
		}

		members, err := deleteMemberships(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		for _, userID := range members {
			if _, err := pruneOrphan(ctx, tx, userID); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)
		if err != nil {
			return fmt.Errorf("delete tenant: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errTenantNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errTenantNotFound) {
			return apperr.NotFound("tenant not found")
		}
		return apperr.Unexpected(err)
	}

	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeTenantDeleted, ActorUserID: actorID, TargetID: tenantID})
	return nil
}

// RemoveMember detaches userID from tenantID.
func (s *Service) RemoveMember(ctx context.Context, actorID, tenantID, userID string) (RemoveMemberResult, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return RemoveMemberResult{}, apperr.NotFound("membership not found")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return RemoveMemberResult{}, apperr.NotFound("membership not found")
	}

	var res RemoveMemberResult
	err := utils.WithTx(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
		if err != nil {
			return fmt.Errorf("delete tenant user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errMembershipNotFound
		}

		deleted, err := pruneOrphan(ctx, tx, userID)
		if err != nil {
			return err
		}
		res.UserDeleted = deleted
		return nil
	})
	if err != nil {
		if errors.Is(err, errMembershipNotFound) {
			return RemoveMemberResult{}, apperr.NotFound("membership not found")
		}
		return RemoveMemberResult{}, apperr.Unexpected(err)
	}

	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeMemberRemoved, ActorUserID: actorID, TenantID: tenantID, TargetID: userID})
	return res, nil
}

// deleteMemberships drops every membership of tenantID and returns the
// affected user ids.
func deleteMemberships(ctx context.Context, tx pgx.Tx, tenantID string) ([]string, error) {
	rows, err := tx.Query(ctx, `DELETE FROM tenant_users WHERE tenant_id = $1 RETURNING user_id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("delete tenant users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete tenant users: %w", err)
	}
	return ids, nil
}

// pruneOrphan deletes userID and its refresh tokens once it belongs to no
// tenant. Super admins are never pruned.
func pruneOrphan(ctx context.Context, tx pgx.Tx, userID string) (bool, error) {
	var remaining int64
	var superAdmin bool
	const q = `
SELECT
  (SELECT count(*) FROM tenant_users WHERE user_id = $1),
  COALESCE((SELECT is_super_admin FROM users WHERE id = $1), false)
`
	if err := tx.QueryRow(ctx, q, userID).Scan(&remaining, &superAdmin); err != nil {
		return false, fmt.Errorf("count memberships: %w", err)
	}
	if remaining > 0 || superAdmin {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return false, fmt.Errorf("delete refresh tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return true, nil
}

func (s *Service) tenantExists(ctx context.Context, tenantID string) error {
	var ok bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, tenantID).Scan(&ok)
	if err != nil {
		return apperr.Unexpected(fmt.Errorf("lookup tenant: %w", err))
	}
	if !ok {
		return apperr.NotFound("tenant not found")
	}
	return nil
}
