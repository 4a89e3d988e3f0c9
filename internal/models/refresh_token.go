package models

import "time"

// RefreshToken is one row of the refresh-token ledger. Token is the literal
// bearer credential; IsRevoked only ever goes from false to true.
type RefreshToken struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}
