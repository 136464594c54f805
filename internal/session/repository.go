package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaign-platform/pkg/utils"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("refresh token not found")

// Repository stores refresh_tokens rows.
type Repository struct {
	db utils.Querier
}

func NewRepository(db utils.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, t RefreshToken) error {
	const q = `
INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	if _, err := r.db.Exec(ctx, q, t.ID, t.UserID, t.Token, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// FindValid returns the row for token if it has not expired at now.
func (r *Repository) FindValid(ctx context.Context, token string, now time.Time) (RefreshToken, error) {
	const q = `
SELECT id, user_id, token, expires_at, created_at
FROM refresh_tokens
WHERE token = $1 AND expires_at > $2
`
	var t RefreshToken
	err := r.db.QueryRow(ctx, q, token, now).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshToken{}, ErrNotFound
		}
		return RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return t, nil
}

// Delete removes the row for token. A missing row is not an error.
func (r *Repository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// DeleteExpired purges rows that can no longer be used.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
