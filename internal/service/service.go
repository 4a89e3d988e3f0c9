package service

import (
	"context"
	"io"
	"time"

	"finance_tracker/internal/lib/password"
	"finance_tracker/internal/lib/token"
	"finance_tracker/internal/logger"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

// Authorization is the session protocol: registration, login, refresh-token
// rotation and logout. Access tokens are verified without touching storage.
type Authorization interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseAccessToken(accessToken string) (int64, error)
}

// Users manages the caller's own account.
type Users interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, p UserPatch) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

type Categories interface {
	CreateCategory(ctx context.Context, userID int64, in CategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context, userID int64, page Page) ([]models.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, id int64, p CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
}

type Transactions interface {
	CreateTransaction(ctx context.Context, userID int64, in TransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, p TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	Summary(ctx context.Context, userID int64, from, to time.Time) (models.Summary, error)
}

// Portability exports a user's data to a JSON document and imports it back.
type Portability interface {
	ExportData(ctx context.Context, userID int64) (*models.ExportDocument, error)
	ImportData(ctx context.Context, userID int64, r io.Reader) (*models.ImportResult, error)
}

// Currency serves exchange rates relative to RUB.
type Currency interface {
	Rates(ctx context.Context, date string) (*models.Rates, error)
	Convert(ctx context.Context, p ConvertParams) (*models.Conversion, error)
}

// Sweeper runs the background loop that prunes expired refresh tokens.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Users
	Categories
	Transactions
	Portability
	Currency
	Sweeper
}

// Deps carries what NewService needs besides the repositories.
type Deps struct {
	Issuer              *token.Issuer
	Hasher              *password.Hasher
	Log                 *logger.Logger
	RevokeFamilyOnReuse bool
	Currency            CurrencyConfig
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Authorization: NewAuthService(repos, d.Issuer, d.Hasher, log, d.RevokeFamilyOnReuse),
		Users:         NewUserService(repos.Users, d.Hasher),
		Categories:    NewCategoryService(repos.Categories),
		Transactions:  NewTransactionService(repos.Transactions, repos.Categories),
		Portability:   NewPortabilityService(repos, log),
		Currency:      NewCurrencyService(d.Currency, log),
		Sweeper:       NewSweeperService(repos.RefreshTokens, log),
	}
}
