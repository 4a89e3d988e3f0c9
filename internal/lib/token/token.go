// Package token mints and verifies the HS256-signed access and refresh
// tokens used by the auth flow.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrBadSubject = errors.New("token subject is not a user id")

// Claims is the payload of both token types. Refresh tokens additionally
// carry a random jti (RegisteredClaims.ID).
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, ErrBadSubject
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadSubject
	}
	return id, nil
}

// Issuer holds the shared secret, token lifetimes and clock.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess signs {sub, exp: now+accessTTL, type: access}.
func (i *Issuer) IssueAccess(userID int64) (string, error) {
	now := i.now()
	return i.sign(Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	})
}

// IssueRefresh signs {sub, exp: now+refreshTTL, type: refresh, jti} and
// returns the token together with its expiry as encoded in the token.
func (i *Issuer) IssueRefresh(userID int64) (string, time.Time, error) {
	now := i.now()
	exp := jwt.NewNumericDate(now.Add(i.refreshTTL))
	signed, err := i.sign(Claims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Time, nil
}

func (i *Issuer) sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Decode verifies signature, algorithm and expiry. Every failure collapses
// into ok == false.
func (i *Issuer) Decode(tokenStr string) (*Claims, bool) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return nil, false
	}
	return claims, true
}

// ParseAccess decodes an access token and returns its user id.
func (i *Issuer) ParseAccess(tokenStr string) (int64, bool) {
	claims, ok := i.Decode(tokenStr)
	if !ok || claims.Type != TypeAccess {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}
