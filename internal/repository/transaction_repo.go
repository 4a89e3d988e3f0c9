package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance_tracker/internal/models"
)

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ Transactions = (*TransactionRepository)(nil)

const (
	insertTransactionSQL = `INSERT INTO transactions (amount, currency, description, transaction_type, user_id, category_id, transaction_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectTransactionColumns = `SELECT id, user_id, category_id, amount, currency, description, transaction_type, transaction_date, created_at, updated_at FROM transactions`
	selectTransactionSQL     = selectTransactionColumns + ` WHERE user_id = ? AND id = ?`

	updateTransactionSQL = `UPDATE transactions SET amount = ?, currency = ?, description = ?, transaction_type = ?, category_id = ?, transaction_date = ?, updated_at = ? WHERE user_id = ? AND id = ?`
	deleteTransactionSQL = `DELETE FROM transactions WHERE user_id = ? AND id = ?`

	summaryTransactionsSQL = `SELECT
		COALESCE(SUM(CASE WHEN transaction_type = 'income' THEN amount END), 0),
		COALESCE(SUM(CASE WHEN transaction_type = 'expense' THEN amount END), 0),
		COUNT(*)
	FROM transactions`
)

func (r *TransactionRepository) Create(ctx context.Context, t models.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertTransactionSQL,
		t.Amount, t.Currency, nullString(t.Description), t.TransactionType, t.UserID,
		nullInt64(t.CategoryID), dbTime(t.TransactionDate), dbTime(t.CreatedAt), dbTime(t.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrNoOwner
		}
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for transaction: %w", err)
	}
	return id, nil
}

// List returns the user's transactions newest first, filtered by q.
func (r *TransactionRepository) List(ctx context.Context, userID int64, q TransactionQuery) ([]models.Transaction, error) {
	query, args := buildTransactionList(userID, q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions of user %d: %w", userID, err)
	}
	return out, nil
}

func buildTransactionList(userID int64, q TransactionQuery) (string, []any) {
	conds, args := transactionConds(userID, q.From, q.To)

	if q.Type != "" {
		conds = append(conds, "transaction_type = ?")
		args = append(args, q.Type)
	}
	if q.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *q.CategoryID)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := selectTransactionColumns +
		" WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY transaction_date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)
	return query, args
}

// transactionConds scopes a query to userID and an optional inclusive date range.
func transactionConds(userID int64, from, to time.Time) ([]string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}
	if !from.IsZero() {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, dbTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, dbTime(to))
	}
	return conds, args
}

func (r *TransactionRepository) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, selectTransactionSQL, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *TransactionRepository) Update(ctx context.Context, t models.Transaction) error {
	res, err := r.db.ExecContext(ctx, updateTransactionSQL,
		t.Amount, t.Currency, nullString(t.Description), t.TransactionType, nullInt64(t.CategoryID),
		dbTime(t.TransactionDate), dbTime(t.UpdatedAt), t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteTransactionSQL, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return n > 0, nil
}

// Summary totals income and expense amounts as stored, without currency
// conversion. Zero bounds are open.
func (r *TransactionRepository) Summary(ctx context.Context, userID int64, from, to time.Time) (models.Summary, error) {
	conds, args := transactionConds(userID, from, to)
	query := summaryTransactionsSQL + " WHERE " + strings.Join(conds, " AND ")

	var s models.Summary
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.Income, &s.Expense, &s.Count); err != nil {
		return models.Summary{}, fmt.Errorf("summarize transactions of user %d: %w", userID, err)
	}
	s.Balance = s.Income - s.Expense
	return s, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t        models.Transaction
		category sql.NullInt64
		desc     sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &category, &t.Amount, &t.Currency, &desc,
		&t.TransactionType, &t.TransactionDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.CategoryID = int64Ptr(category)
	t.Description = stringPtr(desc)
	t.TransactionDate = t.TransactionDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
