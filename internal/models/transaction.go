package models

import "time"

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Currency codes a transaction may be recorded in.
const (
	CurrencyRUB = "RUB"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyAED = "AED"

	DefaultCurrency = CurrencyRUB
)

// SupportedCurrencies lists currency codes in display order.
var SupportedCurrencies = []string{CurrencyRUB, CurrencyUSD, CurrencyEUR, CurrencyAED}

// IsSupportedCurrency reports whether code is one of SupportedCurrencies.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// IsTransactionType reports whether s is income or expense.
func IsTransactionType(s string) bool {
	return s == TransactionIncome || s == TransactionExpense
}

type Transaction struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	CategoryID      *int64    `json:"category_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Description     *string   `json:"description"`
	TransactionType string    `json:"transaction_type"` // income | expense
	TransactionDate time.Time `json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Summary aggregates a user's transactions over a period.
type Summary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
	Count   int     `json:"count"`
}
