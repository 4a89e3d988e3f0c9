package service

import (
	"context"
	"time"

	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

// mockUserRepo is a lightweight in-test mock for repository.Users.
type mockUserRepo struct {
	CreateFn        func(u models.User) (int64, error)
	GetByUsernameFn func(username string) (*models.User, error)
	GetByIDFn       func(id int64) (*models.User, error)
	TakenFn         func(username string, exceptID int64) (bool, error)
	UpdateFn        func(u models.User) error
	DeleteFn        func(id int64) (bool, error)

	created []models.User
	updated []models.User
}

func (m *mockUserRepo) Create(_ context.Context, u models.User) (int64, error) {
	m.created = append(m.created, u)
	return m.CreateFn(u)
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.GetByUsernameFn(username)
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return m.GetByIDFn(id)
}

func (m *mockUserRepo) UsernameTaken(_ context.Context, username string, exceptID int64) (bool, error) {
	return m.TakenFn(username, exceptID)
}

func (m *mockUserRepo) Update(_ context.Context, u models.User) error {
	m.updated = append(m.updated, u)
	return m.UpdateFn(u)
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) (bool, error) {
	return m.DeleteFn(id)
}

// mockLedger is a lightweight in-test mock for repository.RefreshTokens.
type mockLedger struct {
	RecordFn        func(t models.RefreshToken) error
	FindFn          func(token string, userID int64) (*models.RefreshToken, error)
	RevokeFn        func(token string) (bool, error)
	RevokeAllFn     func(userID int64) (int64, error)
	DeleteExpiredFn func(before time.Time) (int64, error)

	revokeCalls []string
}

func (m *mockLedger) Record(_ context.Context, t models.RefreshToken) error {
	return m.RecordFn(t)
}

func (m *mockLedger) Find(_ context.Context, token string, userID int64) (*models.RefreshToken, error) {
	return m.FindFn(token, userID)
}

func (m *mockLedger) Revoke(_ context.Context, token string) (bool, error) {
	m.revokeCalls = append(m.revokeCalls, token)
	return m.RevokeFn(token)
}

func (m *mockLedger) RevokeAllForUser(_ context.Context, userID int64) (int64, error) {
	return m.RevokeAllFn(userID)
}

func (m *mockLedger) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return m.DeleteExpiredFn(before)
}

// passthroughTx runs fn against the same mocks without a real transaction.
type passthroughTx struct {
	repo *repository.Repository
	err  error
}

func (p passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Repository) error) error {
	if p.err != nil {
		return p.err
	}
	return fn(ctx, p.repo)
}
