package auth

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("email lookup is normalized", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE email=$1")).
			WithArgs("owner@petalandstem.example").
			WillReturnError(pgx.ErrNoRows)

		_, err = (&AdminRepo{DB: mock}).GetByEmail(ctx, "  Owner@PetalAndStem.example ")
		assert.ErrorIs(t, err, ErrAdminNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-uuid id never reaches the store", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = (&AdminRepo{DB: mock}).GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrAdminNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admins")).
			WithArgs(pgxmock.AnyArg(), "owner@petalandstem.example", "Owner", "hash", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err = (&AdminRepo{DB: mock}).Create(ctx, " Owner@PetalAndStem.example ", "Owner", "hash")
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("password update on missing admin", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE admins SET password_hash=$2")).
			WithArgs("a1", "hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = (&AdminRepo{DB: mock}).UpdatePasswordHash(ctx, "a1", "hash")
		assert.ErrorIs(t, err, ErrAdminNotFound)
	})
}
