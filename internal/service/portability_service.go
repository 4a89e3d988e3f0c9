package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/logger"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

const (
	msgInvalidJSONFile = "Invalid JSON file"

	importDone           = "Import completed"
	importDoneWithErrors = "Import completed with errors"
)

// maxImportSize bounds the JSON document read by ImportData.
const maxImportSize = 10 << 20

type PortabilityService struct {
	users        repository.Users
	categories   repository.Categories
	transactions repository.Transactions
	log          *logger.Logger
	now          func() time.Time
}

func NewPortabilityService(repos *repository.Repository, log *logger.Logger) *PortabilityService {
	if log == nil {
		log = logger.Nop()
	}
	return &PortabilityService{
		users:        repos.Users,
		categories:   repos.Categories,
		transactions: repos.Transactions,
		log:          log,
		now:          time.Now,
	}
}

// ExportData collects the user's profile, categories and transactions.
func (s *PortabilityService) ExportData(ctx context.Context, userID int64) (*models.ExportDocument, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if u == nil {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	cats, err := s.categories.List(ctx, userID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	txs, err := s.transactions.List(ctx, userID, repository.TransactionQuery{})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	doc := &models.ExportDocument{
		Version:      models.ExportVersion,
		ExportDate:   s.now().UTC(),
		User:         models.ExportUser{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt},
		Categories:   make([]models.ExportCategory, 0, len(cats)),
		Transactions: make([]models.ExportTransaction, 0, len(txs)),
	}
	for _, c := range cats {
		created := c.CreatedAt
		doc.Categories = append(doc.Categories, models.ExportCategory{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Icon:        c.Icon,
			CreatedAt:   &created,
		})
	}
	for _, t := range txs {
		date, created := t.TransactionDate, t.CreatedAt
		doc.Transactions = append(doc.Transactions, models.ExportTransaction{
			ID:              t.ID,
			Amount:          t.Amount,
			Currency:        t.Currency,
			Description:     t.Description,
			TransactionType: t.TransactionType,
			CategoryID:      t.CategoryID,
			TransactionDate: &date,
			CreatedAt:       &created,
		})
	}
	return doc, nil
}

// ImportData reads an export document and adds its categories and
// transactions to the user's data. Items are inserted one by one; failed
// items are reported in the result and do not stop the import.
func (s *PortabilityService) ImportData(ctx context.Context, userID int64, r io.Reader) (*models.ImportResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	if u == nil {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	var doc models.ExportDocument
	if err := json.NewDecoder(io.LimitReader(r, maxImportSize)).Decode(&doc); err != nil {
		return nil, apperr.BadRequest(msgInvalidJSONFile)
	}
	if doc.Version != models.ExportVersion {
		return nil, apperr.BadRequest(fmt.Sprintf("Unsupported export version %q", doc.Version))
	}

	res := &models.ImportResult{}
	now := s.now().UTC()

	// exported category id -> new id
	remap := make(map[int64]int64, len(doc.Categories))
	for i, ec := range doc.Categories {
		name := strings.TrimSpace(ec.Name)
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("category %d: name is required", i))
			continue
		}
		icon := ec.Icon
		if icon == "" {
			icon = models.DefaultCategoryIcon
		}
		id, err := s.categories.Create(ctx, models.Category{
			UserID:      userID,
			Name:        name,
			Description: ec.Description,
			Icon:        icon,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			s.log.Warnw("import_category_failed", "user_id", userID, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("category %q: could not be saved", name))
			continue
		}
		remap[ec.ID] = id
		res.ImportedCategories++
	}

	for i, et := range doc.Transactions {
		t, problem := s.importedTransaction(userID, et, remap, now)
		if problem != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("transaction %d: %s", i, problem))
			continue
		}
		if _, err := s.transactions.Create(ctx, t); err != nil {
			s.log.Warnw("import_transaction_failed", "user_id", userID, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("transaction %d: could not be saved", i))
			continue
		}
		res.ImportedTransactions++
	}

	res.Message = importDone
	if len(res.Errors) > 0 {
		res.Message = importDoneWithErrors
	}
	s.log.Infow("user_data_imported", "user_id", userID,
		"categories", res.ImportedCategories, "transactions", res.ImportedTransactions, "errors", len(res.Errors))
	return res, nil
}

// importedTransaction converts an exported transaction, or explains why it cannot be imported.
func (s *PortabilityService) importedTransaction(userID int64, et models.ExportTransaction, remap map[int64]int64, now time.Time) (models.Transaction, string) {
	if !(et.Amount > 0) {
		return models.Transaction{}, "amount must be greater than zero"
	}
	if !models.IsTransactionType(et.TransactionType) {
		return models.Transaction{}, "transaction_type must be income or expense"
	}
	cur := strings.ToUpper(et.Currency)
	if cur == "" {
		cur = models.DefaultCurrency
	}
	if !models.IsSupportedCurrency(cur) {
		return models.Transaction{}, fmt.Sprintf("unsupported currency %q", et.Currency)
	}

	t := models.Transaction{
		UserID:          userID,
		Amount:          et.Amount,
		Currency:        cur,
		Description:     et.Description,
		TransactionType: et.TransactionType,
		TransactionDate: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if et.TransactionDate != nil {
		t.TransactionDate = et.TransactionDate.UTC()
	}
	if et.CategoryID != nil {
		if id, ok := remap[*et.CategoryID]; ok {
			t.CategoryID = &id
		}
	}
	return t, ""
}
