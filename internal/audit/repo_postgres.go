package audit

import (
	"context"
	"fmt"

	"campaign-platform/pkg/utils"
)

// PostgresRepo writes to audit_events. The table should carry an INSERT-only policy.
type PostgresRepo struct {
	db utils.Querier
}

func NewPostgresRepo(db utils.Querier) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, tenant_id, type, actor_user_id, ip_address, target_id, message, created_at)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8)
`
	if _, err := r.db.Exec(ctx, q,
		e.ID,
		e.TenantID,
		string(e.Type),
		e.ActorUserID,
		e.IPAddress,
		e.TargetID,
		e.Message,
		e.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
