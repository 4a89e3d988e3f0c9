package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/lib/password"
	"finance_tracker/internal/lib/token"
	"finance_tracker/internal/logger"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

// Caller-facing auth failure details.
const (
	msgUsernameTaken      = "User with this username already exists"
	msgBadCredentials     = "Incorrect username or password"
	msgInactiveUser       = "Inactive user"
	msgInvalidRefresh     = "Invalid refresh token"
	msgRefreshNotFound    = "Refresh token not found"
	msgRefreshRevoked     = "Refresh token has been revoked"
	msgRefreshExpired     = "Refresh token has expired"
	msgUserInactiveOrGone = "User not found or inactive"
	msgInvalidCredentials = "Could not validate credentials"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgUsernameRequired   = "Username and password are required"
)

// AuthService handles registration, login and the refresh-token rotation
// protocol.
type AuthService struct {
	users  repository.Users
	tokens repository.RefreshTokens
	tx     repository.Transactor

	issuer *token.Issuer
	hasher *password.Hasher
	log    *logger.Logger
	now    func() time.Time

	revokeFamilyOnReuse bool
}

func NewAuthService(repos *repository.Repository, issuer *token.Issuer, hasher *password.Hasher, log *logger.Logger, revokeFamilyOnReuse bool) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{
		users:               repos.Users,
		tokens:              repos.RefreshTokens,
		tx:                  repos,
		issuer:              issuer,
		hasher:              hasher,
		log:                 log,
		now:                 time.Now,
		revokeFamilyOnReuse: revokeFamilyOnReuse,
	}
}

// Register creates a new active user. Usernames are matched exactly.
func (s *AuthService) Register(ctx context.Context, username, pw string) (*models.User, error) {
	if username == "" || pw == "" {
		return nil, apperr.BadRequest(msgUsernameRequired)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgUsernameTaken)
	}

	digest, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, apperr.BadRequest(msgPasswordTooLong)
		}
		return nil, err
	}

	now := s.now().UTC()
	u := models.User{
		Username:     username,
		PasswordHash: digest,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(msgUsernameTaken)
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	u.ID = id

	s.log.Infow("user_registered", "user_id", id)
	return &u, nil
}

// Login verifies credentials and opens a session: one access token plus one
// refresh token recorded in the ledger.
func (s *AuthService) Login(ctx context.Context, username, pw string) (TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return TokenPair{}, fmt.Errorf("login: %w", err)
	}
	if u == nil {
		s.hasher.VerifyDummy(pw)
		s.log.Infow("auth_login_failed", "reason", "unknown_user")
		return TokenPair{}, apperr.Unauthorized(msgBadCredentials)
	}
	if !s.hasher.Verify(pw, u.PasswordHash) {
		s.log.Infow("auth_login_failed", "reason", "bad_password", "user_id", u.ID)
		return TokenPair{}, apperr.Unauthorized(msgBadCredentials)
	}
	if !u.IsActive {
		return TokenPair{}, apperr.BadRequest(msgInactiveUser)
	}

	pair, err := s.issuePair(ctx, s.tokens, u.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("login: %w", err)
	}
	s.log.Infow("auth_login", "user_id", u.ID)
	return pair, nil
}

// Refresh rotates a refresh token. Lookup, checks, revocation of the
// presented token and recording of its successor run in one transaction, and
// revocation is a conditional update, so two concurrent calls with the same
// token cannot both succeed.
func (s *AuthService) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	claims, ok := s.issuer.Decode(presented)
	if !ok || claims.Type != token.TypeRefresh {
		return TokenPair{}, apperr.Unauthorized(msgInvalidRefresh)
	}
	userID, err := claims.UserID()
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(msgInvalidRefresh)
	}

	var (
		pair     TokenPair
		rejected *apperr.Error
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		entry, err := tx.RefreshTokens.Find(ctx, presented, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			rejected = apperr.Unauthorized(msgRefreshNotFound)
			return nil
		}
		if entry.IsRevoked {
			rejected = apperr.Unauthorized(msgRefreshRevoked)
			return s.onReuse(ctx, tx, userID)
		}
		if entry.ExpiresAt.Before(s.now()) {
			rejected = apperr.Unauthorized(msgRefreshExpired)
			return nil
		}

		u, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil || !u.IsActive {
			rejected = apperr.Unauthorized(msgUserInactiveOrGone)
			return nil
		}

		flipped, err := tx.RefreshTokens.Revoke(ctx, presented)
		if err != nil {
			return err
		}
		if !flipped {
			rejected = apperr.Unauthorized(msgRefreshRevoked)
			return nil
		}

		pair, err = s.issuePair(ctx, tx.RefreshTokens, userID)
		return err
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	if rejected != nil {
		s.log.Warnw("refresh_rejected", "user_id", userID, "reason", rejected.Detail)
		return TokenPair{}, rejected
	}

	s.log.Infow("refresh_rotated", "user_id", userID)
	return pair, nil
}

// onReuse runs when an already rotated token is presented again.
func (s *AuthService) onReuse(ctx context.Context, tx *repository.Repository, userID int64) error {
	if !s.revokeFamilyOnReuse {
		return nil
	}
	n, err := tx.RefreshTokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Warnw("refresh_reuse_family_revoked", "user_id", userID, "revoked", n)
	return nil
}

// Logout revokes the token if the ledger knows it. Unknown, revoked or
// undecodable tokens are not an error, and neither is a storage failure.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	if _, err := s.tokens.Revoke(ctx, presented); err != nil {
		s.log.Warnw("logout_revoke_failed", "error", err)
	}
	return nil
}

// ParseAccessToken returns the user id of a valid access token.
func (s *AuthService) ParseAccessToken(accessToken string) (int64, error) {
	id, ok := s.issuer.ParseAccess(accessToken)
	if !ok {
		return 0, apperr.Unauthorized(msgInvalidCredentials)
	}
	return id, nil
}

// issuePair mints both tokens and records the refresh token in ledger.
func (s *AuthService) issuePair(ctx context.Context, ledger repository.RefreshTokens, userID int64) (TokenPair, error) {
	access, err := s.issuer.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, exp, err := s.issuer.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	err = ledger.Record(ctx, models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: exp,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("record refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: exp}, nil
}
