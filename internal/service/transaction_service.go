package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

const (
	msgTransactionNotFound = "Transaction not found"
	msgAmountNotPositive   = "Amount must be greater than zero"
	msgBadTransactionType  = "transaction_type must be income or expense"
	msgUnsupportedCurrency = "Unsupported currency. Supported: RUB, USD, EUR, AED"
)

type TransactionService struct {
	repo       repository.Transactions
	categories repository.Categories
	now        func() time.Time
}

func NewTransactionService(repo repository.Transactions, categories repository.Categories) *TransactionService {
	return &TransactionService{repo: repo, categories: categories, now: time.Now}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, userID int64, in TransactionInput) (*models.Transaction, error) {
	cur := strings.ToUpper(in.Currency)
	if cur == "" {
		cur = models.DefaultCurrency
	}

	now := s.now().UTC()
	t := models.Transaction{
		UserID:          userID,
		CategoryID:      in.CategoryID,
		Amount:          in.Amount,
		Currency:        cur,
		Description:     in.Description,
		TransactionType: in.TransactionType,
		TransactionDate: in.TransactionDate.UTC(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.TransactionDate.IsZero() {
		t.TransactionDate = now
	}
	if err := s.validate(ctx, t); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, t)
	if err != nil {
		if errors.Is(err, repository.ErrNoOwner) {
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id
	return &t, nil
}

// validate checks field ranges and that the category, if any, belongs to the user.
func (s *TransactionService) validate(ctx context.Context, t models.Transaction) error {
	if !(t.Amount > 0) {
		return apperr.BadRequest(msgAmountNotPositive)
	}
	if !models.IsTransactionType(t.TransactionType) {
		return apperr.BadRequest(msgBadTransactionType)
	}
	if !models.IsSupportedCurrency(t.Currency) {
		return apperr.BadRequest(msgUnsupportedCurrency)
	}
	if t.CategoryID != nil {
		c, err := s.categories.Get(ctx, t.UserID, *t.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if c == nil {
			return apperr.NotFound(msgCategoryNotFound)
		}
	}
	return nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]models.Transaction, error) {
	if f.Type != "" && !models.IsTransactionType(f.Type) {
		return nil, apperr.BadRequest(msgBadTransactionType)
	}
	page := f.Page.normalize()
	out, err := s.repo.List(ctx, userID, repository.TransactionQuery{
		Type:       f.Type,
		CategoryID: f.CategoryID,
		From:       f.From,
		To:         f.To,
		Offset:     page.Skip,
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound(msgTransactionNotFound)
	}
	return t, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id int64, p TransactionPatch) (*models.Transaction, error) {
	t, err := s.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = strings.ToUpper(*p.Currency)
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.TransactionType != nil {
		t.TransactionType = *p.TransactionType
	}
	switch {
	case p.ClearCategory:
		t.CategoryID = nil
	case p.CategoryID != nil:
		t.CategoryID = p.CategoryID
	}
	if p.TransactionDate != nil {
		t.TransactionDate = p.TransactionDate.UTC()
	}
	if err := s.validate(ctx, *t); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, *t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgTransactionNotFound)
		}
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !ok {
		return apperr.NotFound(msgTransactionNotFound)
	}
	return nil
}

// Summary totals the user's transactions in [from, to]; zero bounds are open.
func (s *TransactionService) Summary(ctx context.Context, userID int64, from, to time.Time) (models.Summary, error) {
	sum, err := s.repo.Summary(ctx, userID, from, to)
	if err != nil {
		return models.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return sum, nil
}
