package entities

import "github.com/shopspring/decimal"

// UserStats counts the caller's own deposits.
type UserStats struct {
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

// TraderStats summarizes a trader's book.
type TraderStats struct {
	Balance    decimal.Decimal `json:"balance"`
	Completed  int64           `json:"completed"`
	Pending    int64           `json:"pending"`
	CardsCount int64           `json:"cards_count"`
}

// AdminStats are platform-wide totals.
type AdminStats struct {
	TotalTraders          int64 `json:"total_traders"`
	TotalUsers            int64 `json:"total_users"`
	TotalTransactions     int64 `json:"total_transactions"`
	CompletedTransactions int64 `json:"completed_transactions"`
}
