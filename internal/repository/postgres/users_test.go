package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withRepo := func(t *testing.T, fn func(repo *UserRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(&UserRepo{DB: tx})
		})
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				user, err := repo.CreateUser(t.Context(), "nk@example.com", "nk", "hashed")

				require.NoError(t, err)
				require.NotEqual(t, uuid.Nil, user.ID)
				require.Equal(t, "nk@example.com", user.Email)
				require.Equal(t, "nk", user.Name)
				require.Equal(t, "hashed", user.HashedPassword)
				require.NotZero(t, user.CreatedAt)
			})
		})

		t.Run("duplicate email fails", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				_, err := repo.CreateUser(t.Context(), "nk@example.com", "nk", "hashed")
				require.NoError(t, err)

				_, err = repo.CreateUser(t.Context(), "nk@example.com", "other", "hashed")
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("GetUser", func(t *testing.T) {
		t.Run("by id and email", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				created, err := repo.CreateUser(t.Context(), "nk@example.com", "nk", "hashed")
				require.NoError(t, err)

				byID, err := repo.GetUserByID(t.Context(), created.ID)
				require.NoError(t, err)
				require.Equal(t, created.ID, byID.ID)

				byEmail, err := repo.GetUserByEmail(t.Context(), "nk@example.com")
				require.NoError(t, err)
				require.Equal(t, created.ID, byEmail.ID)
			})
		})

		t.Run("not found", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				_, err := repo.GetUserByID(t.Context(), uuid.New())
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)

				_, err = repo.GetUserByEmail(t.Context(), "missing@example.com")
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		t.Run("partial update keeps other fields", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				created, err := repo.CreateUser(t.Context(), "nk@example.com", "nk", "hashed")
				require.NoError(t, err)

				name := "renamed"
				updated, err := repo.UpdateProfile(t.Context(), created.ID, &name, nil)

				require.NoError(t, err)
				require.Equal(t, "renamed", updated.Name)
				require.Equal(t, "nk@example.com", updated.Email, "email must stay untouched")
			})
		})

		t.Run("email taken by another user", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				_, err := repo.CreateUser(t.Context(), "first@example.com", "first", "hashed")
				require.NoError(t, err)
				second, err := repo.CreateUser(t.Context(), "second@example.com", "second", "hashed")
				require.NoError(t, err)

				email := "first@example.com"
				_, err = repo.UpdateProfile(t.Context(), second.ID, nil, &email)

				require.ErrorIs(t, err, apperrors.ErrEmailTaken)
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			withRepo(t, func(repo *UserRepo) {
				name := "nobody"
				_, err := repo.UpdateProfile(t.Context(), uuid.New(), &name, nil)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		withRepo(t, func(repo *UserRepo) {
			created, err := repo.CreateUser(t.Context(), "nk@example.com", "nk", "old-hash")
			require.NoError(t, err)

			err = repo.UpdatePassword(t.Context(), created.ID, "new-hash")
			require.NoError(t, err)

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, "new-hash", user.HashedPassword)
		})
	})
}
