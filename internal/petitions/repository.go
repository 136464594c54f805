package petitions

import (
	"context"
	"errors"
	"fmt"

	"campaign-platform/pkg/utils"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound      = errors.New("petition not found")
	ErrAlreadySigned = errors.New("petition already signed")
	ErrSlugTaken     = errors.New("petition slug taken")
)

// Repository runs petition SQL. Every tenant-facing query filters on tenant_id.
type Repository struct {
	db utils.DB
}

func NewRepository(db utils.DB) *Repository {
	return &Repository{db: db}
}

const petitionColumns = `p.id, p.tenant_id, p.title, p.slug, p.description, p.goal, p.is_active, p.created_by, p.created_at`

func scanPetition(row pgx.Row) (Petition, error) {
	var p Petition
	err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.Slug, &p.Description, &p.Goal, &p.IsActive, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Petition{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) List(ctx context.Context, tenantID string) ([]Petition, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+petitionColumns+` FROM petitions p WHERE p.tenant_id = $1 ORDER BY p.created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list petitions: %w", err)
	}
	defer rows.Close()

	out := []Petition{}
	for rows.Next() {
		p, err := scanPetition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan petition: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Petition, error) {
	p, err := scanPetition(r.db.QueryRow(ctx,
		`SELECT `+petitionColumns+` FROM petitions p WHERE p.id = $1 AND p.tenant_id = $2`,
		id, tenantID,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Petition{}, fmt.Errorf("get petition: %w", err)
	}
	return p, err
}

// GetPublic finds an active petition of an active tenant by slug.
func (r *Repository) GetPublic(ctx context.Context, slug string) (Petition, error) {
	p, err := scanPetition(r.db.QueryRow(ctx,
		`SELECT `+petitionColumns+`
FROM petitions p
JOIN tenants t ON t.id = p.tenant_id
WHERE p.slug = $1 AND p.is_active AND t.is_active`,
		slug,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Petition{}, fmt.Errorf("get public petition: %w", err)
	}
	return p, err
}

func (r *Repository) Insert(ctx context.Context, p Petition) error {
	const q = `
INSERT INTO petitions (id, tenant_id, title, slug, description, goal, is_active, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.Exec(ctx, q, p.ID, p.TenantID, p.Title, p.Slug, p.Description, p.Goal, p.IsActive, p.CreatedBy, p.CreatedAt)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert petition: %w", err)
	}
	return nil
}

// Delete removes the petition and its signatures atomically.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	return utils.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM signatures WHERE petition_id IN (SELECT id FROM petitions WHERE id = $1 AND tenant_id = $2)`,
			id, tenantID,
		); err != nil {
			return fmt.Errorf("delete signatures: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM petitions WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return fmt.Errorf("delete petition: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) ListSignatures(ctx context.Context, petitionID string) ([]Signature, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, petition_id, user_id::text, email, full_name, COALESCE(comment, ''), created_at
FROM signatures
WHERE petition_id = $1
ORDER BY created_at DESC`, petitionID)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	out := []Signature{}
	for rows.Next() {
		var s Signature
		if err := rows.Scan(&s.ID, &s.PetitionID, &s.UserID, &s.Email, &s.FullName, &s.Comment, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSignature maps the (petition_id, lower(email)) unique index to ErrAlreadySigned.
func (r *Repository) InsertSignature(ctx context.Context, s Signature) error {
	const q = `
INSERT INTO signatures (id, petition_id, user_id, email, full_name, comment, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
`
	_, err := r.db.Exec(ctx, q, s.ID, s.PetitionID, s.UserID, s.Email, s.FullName, s.Comment, s.CreatedAt)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrAlreadySigned
		}
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}

func (r *Repository) CountSignatures(ctx context.Context, petitionID string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM signatures WHERE petition_id = $1`, petitionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count signatures: %w", err)
	}
	return n, nil
}
