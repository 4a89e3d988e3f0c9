package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finance_tracker/internal/models"
)

// RefreshTokenRepository stores issued refresh tokens. Rows are never
// un-revoked; revocation is a conditional update so that of two concurrent
// callers only one observes the transition.
type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

var _ RefreshTokens = (*RefreshTokenRepository)(nil)

const (
	insertRefreshTokenSQL = `INSERT INTO refresh_tokens (token, user_id, expires_at, is_revoked, created_at) VALUES (?, ?, ?, 0, ?)`
	selectRefreshTokenSQL = `SELECT id, token, user_id, expires_at, is_revoked, created_at FROM refresh_tokens WHERE token = ? AND user_id = ?`
	revokeRefreshTokenSQL = `UPDATE refresh_tokens SET is_revoked = 1 WHERE token = ? AND is_revoked = 0`
	revokeAllForUserSQL   = `UPDATE refresh_tokens SET is_revoked = 1 WHERE user_id = ? AND is_revoked = 0`
	deleteExpiredSQL      = `DELETE FROM refresh_tokens WHERE expires_at < ?`
)

// Record inserts an unrevoked ledger entry for t.Token.
func (r *RefreshTokenRepository) Record(ctx context.Context, t models.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, insertRefreshTokenSQL,
		t.Token, t.UserID, dbTime(t.ExpiresAt), dbTime(t.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert refresh token for user %d: %w", t.UserID, err)
	}
	return nil
}

// Find returns the entry matching both token and userID, or (nil, nil).
func (r *RefreshTokenRepository) Find(ctx context.Context, token string, userID int64) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.db.QueryRowContext(ctx, selectRefreshTokenSQL, token, userID).
		Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select refresh token for user %d: %w", userID, err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Revoke marks token revoked. It reports true only when this call performed
// the transition; an unknown or already revoked token yields false.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, revokeRefreshTokenSQL, token)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n == 1, nil
}

// RevokeAllForUser revokes every live token of userID and returns how many
// rows changed.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, revokeAllForUserSQL, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens of user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens of user %d: %w", userID, err)
	}
	return n, nil
}

// DeleteExpired removes entries whose expiry is strictly before the cutoff.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSQL, dbTime(before))
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return n, nil
}
