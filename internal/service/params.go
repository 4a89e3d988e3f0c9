package service

import "time"

// TokenPair is what login and refresh hand back to the transport layer.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Page is offset pagination. Limit is clamped by the service.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// UserPatch updates only the non-nil fields.
type UserPatch struct {
	Username *string
	Password *string
	IsActive *bool
}

type CategoryInput struct {
	Name        string
	Description *string
	Icon        string // "" means models.DefaultCategoryIcon
}

type CategoryPatch struct {
	Name        *string
	Description *string
	Icon        *string
}

type TransactionInput struct {
	Amount          float64
	Currency        string    // "" means models.DefaultCurrency
	Description     *string
	TransactionType string    // income | expense
	CategoryID      *int64
	TransactionDate time.Time // zero means now
}

// TransactionPatch updates only the non-nil fields. ClearCategory detaches
// the transaction from its category.
type TransactionPatch struct {
	Amount          *float64
	Currency        *string
	Description     *string
	TransactionType *string
	CategoryID      *int64
	ClearCategory   bool
	TransactionDate *time.Time
}

// TransactionFilter supports history filtering by time range, type and category.
type TransactionFilter struct {
	Page
	Type       string
	CategoryID *int64
	From       time.Time // inclusive; zero means no lower bound
	To         time.Time // inclusive; zero means no upper bound
}

type ConvertParams struct {
	Amount float64
	From   string
	To     string
	Date   string // YYYY-MM-DD, "" means latest
}
