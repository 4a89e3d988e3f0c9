package models

import "time"

// ExportVersion is the only export document version Import accepts.
const ExportVersion = "1.0"

// ExportDocument is the JSON file produced by export and consumed by import.
type ExportDocument struct {
	Version      string              `json:"version"`
	ExportDate   time.Time           `json:"export_date"`
	User         ExportUser          `json:"user"`
	Categories   []ExportCategory    `json:"categories"`
	Transactions []ExportTransaction `json:"transactions"`
}

type ExportUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type ExportCategory struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Icon        string     `json:"icon"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

type ExportTransaction struct {
	ID              int64      `json:"id"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency,omitempty"`
	Description     *string    `json:"description,omitempty"`
	TransactionType string     `json:"transaction_type"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// ImportResult reports what an import created. Errors is null when every
// item was imported.
type ImportResult struct {
	Message              string   `json:"message"`
	ImportedCategories   int      `json:"imported_categories"`
	ImportedTransactions int      `json:"imported_transactions"`
	Errors               []string `json:"errors"`
}
