package user

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/repository/postgres"
	"github.com/nkiryanov/fintrack/internal/service/auth"
	"github.com/nkiryanov/fintrack/internal/testutil"
)

func Test_UserService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withService := func(t *testing.T, fn func(s *UserService, repo *postgres.UserRepo, user models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &postgres.UserRepo{DB: tx}

			hash, err := auth.DefaultHasher.Hash("OldPassword")
			require.NoError(t, err)
			user, err := repo.CreateUser(t.Context(), "nk@example.com", "nk", hash)
			require.NoError(t, err)

			fn(NewService(nil, repo), repo, user)
		})
	}

	t.Run("GetProfile", func(t *testing.T) {
		withService(t, func(s *UserService, _ *postgres.UserRepo, user models.User) {
			got, err := s.GetProfile(t.Context(), user.ID)

			require.NoError(t, err)
			require.Equal(t, user.ID, got.ID)
			require.Equal(t, "nk@example.com", got.Email)
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		t.Run("rename", func(t *testing.T) {
			withService(t, func(s *UserService, _ *postgres.UserRepo, user models.User) {
				name := "renamed"
				updated, err := s.UpdateProfile(t.Context(), user.ID, &name, nil)

				require.NoError(t, err)
				require.Equal(t, "renamed", updated.Name)
				require.Equal(t, "nk@example.com", updated.Email)
			})
		})

		t.Run("email taken", func(t *testing.T) {
			withService(t, func(s *UserService, repo *postgres.UserRepo, user models.User) {
				_, err := repo.CreateUser(t.Context(), "taken@example.com", "other", "hashed")
				require.NoError(t, err)

				email := "taken@example.com"
				_, err = s.UpdateProfile(t.Context(), user.ID, nil, &email)
				require.ErrorIs(t, err, apperrors.ErrEmailTaken)
			})
		})
	})

	t.Run("ChangePassword", func(t *testing.T) {
		t.Run("replaces hash", func(t *testing.T) {
			withService(t, func(s *UserService, repo *postgres.UserRepo, user models.User) {
				err := s.ChangePassword(t.Context(), user.ID, "OldPassword", "NewPassword")
				require.NoError(t, err)

				stored, err := repo.GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
				require.NoError(t, auth.DefaultHasher.Compare(stored.HashedPassword, "NewPassword"))
			})
		})

		t.Run("wrong current password", func(t *testing.T) {
			withService(t, func(s *UserService, repo *postgres.UserRepo, user models.User) {
				err := s.ChangePassword(t.Context(), user.ID, "Wrong", "NewPassword")
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

				stored, err := repo.GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
				require.NoError(t, auth.DefaultHasher.Compare(stored.HashedPassword, "OldPassword"), "hash must stay untouched")
			})
		})
	})
}
