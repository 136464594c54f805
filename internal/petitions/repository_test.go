package petitions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petitionID = "3c2b1a09-8f7e-4d6c-9b5a-4f3e2d1c0b9a"

func TestRepository_DeleteRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM signatures").WithArgs(petitionID, tenantA).WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectExec("DELETE FROM petitions").WithArgs(petitionID, tenantA).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	require.Error(t, r.Delete(context.Background(), tenantA, petitionID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM signatures").WithArgs(petitionID, tenantB).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM petitions").WithArgs(petitionID, tenantB).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, r.Delete(context.Background(), tenantB, petitionID), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertSignatureDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := NewRepository(mock)
	s := Signature{ID: "s-1", PetitionID: petitionID, Email: "a@example.com", FullName: "A", CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO signatures").
		WithArgs(s.ID, s.PetitionID, s.UserID, s.Email, s.FullName, s.Comment, s.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "signatures_petition_email_key"})

	assert.ErrorIs(t, r.InsertSignature(context.Background(), s), ErrAlreadySigned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetIsTenantScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := NewRepository(mock)
	now := time.Now()

	mock.ExpectQuery("FROM petitions p WHERE p.id = \\$1 AND p.tenant_id = \\$2").
		WithArgs(petitionID, tenantA).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "title", "slug", "description", "goal", "is_active", "created_by", "created_at"}).
			AddRow(petitionID, tenantA, "T", "t-abc123", "", 10, true, userID, now))

	p, err := r.Get(context.Background(), tenantA, petitionID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Goal)
	require.NoError(t, mock.ExpectationsWereMet())
}
