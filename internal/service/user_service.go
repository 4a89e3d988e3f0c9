package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/lib/password"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

const (
	msgUsernameInUse = "Username already in use"
	msgEmptyUsername = "Username must not be empty"
)

type UserService struct {
	users  repository.Users
	hasher *password.Hasher
	now    func() time.Time
}

func NewUserService(users repository.Users, hasher *password.Hasher) *UserService {
	return &UserService{users: users, hasher: hasher, now: time.Now}
}

// GetProfile returns the user. A missing user is reported as Unauthorized:
// the access token outlived the account.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if u == nil {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, p UserPatch) (*models.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.Username != nil && *p.Username != u.Username {
		if *p.Username == "" {
			return nil, apperr.BadRequest(msgEmptyUsername)
		}
		taken, err := s.users.UsernameTaken(ctx, *p.Username, userID)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if taken {
			return nil, apperr.BadRequest(msgUsernameInUse)
		}
		u.Username = *p.Username
	}
	if p.Password != nil {
		digest, err := s.hasher.Hash(*p.Password)
		if err != nil {
			if errors.Is(err, password.ErrTooLong) {
				return nil, apperr.BadRequest(msgPasswordTooLong)
			}
			return nil, err
		}
		u.PasswordHash = digest
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, *u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.BadRequest(msgUsernameInUse)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// DeleteAccount removes the user together with categories, transactions and
// refresh tokens.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	ok, err := s.users.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if !ok {
		return apperr.Unauthorized(msgInvalidCredentials)
	}
	return nil
}
