package service

import (
	"context"
	"errors"
	"testing"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/lib/password"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_GetProfile(t *testing.T) {
	repo := &mockUserRepo{
		GetByIDFn: func(id int64) (*models.User, error) {
			if id == 1 {
				return &models.User{ID: 1, Username: "alice", IsActive: true}, nil
			}
			return nil, nil
		},
	}
	svc := NewUserService(repo, password.NewHasher(bcrypt.MinCost))

	u, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.GetProfile(context.Background(), 2)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestUserService_UpdateProfile(t *testing.T) {
	hasher := password.NewHasher(bcrypt.MinCost)
	newRepo := func() *mockUserRepo {
		return &mockUserRepo{
			GetByIDFn: func(int64) (*models.User, error) {
				return &models.User{ID: 1, Username: "alice", PasswordHash: "old", IsActive: true}, nil
			},
			TakenFn:  func(username string, _ int64) (bool, error) { return username == "bob", nil },
			UpdateFn: func(models.User) error { return nil },
		}
	}

	t.Run("username taken", func(t *testing.T) {
		repo := newRepo()
		_, err := NewUserService(repo, hasher).UpdateProfile(context.Background(), 1, UserPatch{Username: ptr("bob")})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
		assert.Equal(t, msgUsernameInUse, apperr.Detail(err, ""))
		assert.Empty(t, repo.updated)
	})

	t.Run("same username is not a conflict", func(t *testing.T) {
		repo := newRepo()
		repo.TakenFn = func(string, int64) (bool, error) {
			t.Fatal("UsernameTaken should not be called when the name does not change")
			return false, nil
		}
		_, err := NewUserService(repo, hasher).UpdateProfile(context.Background(), 1, UserPatch{Username: ptr("alice")})
		require.NoError(t, err)
	})

	t.Run("rename, new password and deactivate", func(t *testing.T) {
		repo := newRepo()
		u, err := NewUserService(repo, hasher).UpdateProfile(context.Background(), 1, UserPatch{
			Username: ptr("carol"),
			Password: ptr("n3w-pass"),
			IsActive: ptr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, "carol", u.Username)
		assert.False(t, u.IsActive)
		require.Len(t, repo.updated, 1)
		assert.True(t, hasher.Verify("n3w-pass", repo.updated[0].PasswordHash))
	})

	t.Run("duplicate on write", func(t *testing.T) {
		repo := newRepo()
		repo.UpdateFn = func(models.User) error { return repository.ErrDuplicate }
		_, err := NewUserService(repo, hasher).UpdateProfile(context.Background(), 1, UserPatch{Username: ptr("dave")})
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})
}

func TestUserService_DeleteAccount(t *testing.T) {
	repo := &mockUserRepo{
		DeleteFn: func(id int64) (bool, error) {
			switch id {
			case 1:
				return true, nil
			case 2:
				return false, nil
			}
			return false, errors.New("db down")
		},
	}
	svc := NewUserService(repo, password.NewHasher(bcrypt.MinCost))

	assert.NoError(t, svc.DeleteAccount(context.Background(), 1))
	assert.ErrorIs(t, svc.DeleteAccount(context.Background(), 2), apperr.ErrUnauthorized)
	assert.ErrorContains(t, svc.DeleteAccount(context.Background(), 3), "delete account")
}
