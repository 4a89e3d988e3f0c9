package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"finance_tracker/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")

	// ErrNoOwner is returned when an insert references a user (or category)
	// that no longer exists.
	ErrNoOwner = errors.New("referenced row does not exist")
)

type Users interface {
	Create(ctx context.Context, u models.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	Update(ctx context.Context, u models.User) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// RefreshTokens is the refresh-token ledger.
type RefreshTokens interface {
	Record(ctx context.Context, t models.RefreshToken) error
	Find(ctx context.Context, token string, userID int64) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Categories interface {
	Create(ctx context.Context, c models.Category) (int64, error)
	List(ctx context.Context, userID int64, offset, limit int) ([]models.Category, error)
	Get(ctx context.Context, userID, id int64) (*models.Category, error)
	Update(ctx context.Context, c models.Category) error
	Delete(ctx context.Context, userID, id int64) (bool, error)
}

type Transactions interface {
	Create(ctx context.Context, t models.Transaction) (int64, error)
	List(ctx context.Context, userID int64, q TransactionQuery) ([]models.Transaction, error)
	Get(ctx context.Context, userID, id int64) (*models.Transaction, error)
	Update(ctx context.Context, t models.Transaction) error
	Delete(ctx context.Context, userID, id int64) (bool, error)
	Summary(ctx context.Context, userID int64, from, to time.Time) (models.Summary, error)
}

// TransactionQuery filters List. Zero values mean "no filter"; Limit <= 0
// means unbounded.
type TransactionQuery struct {
	Type       string
	CategoryID *int64
	From       time.Time // inclusive
	To         time.Time // inclusive
	Offset     int
	Limit      int
}

// Transactor runs fn inside one database transaction with every repository
// bound to it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error
}

type Repository struct {
	Users         Users
	RefreshTokens RefreshTokens
	Categories    Categories
	Transactions  Transactions

	db *sql.DB
}

var _ Transactor = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	r := bind(db)
	r.db = db
	return r
}

func bind(db DBTX) *Repository {
	return &Repository{
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Categories:    NewCategoryRepository(db),
		Transactions:  NewTransactionRepository(db),
	}
}

// WithinTx implements Transactor.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	if r.db == nil {
		return errors.New("repository is already bound to a transaction")
	}
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, bind(tx))
	})
}
