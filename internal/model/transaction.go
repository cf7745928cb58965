// Package model defines domain types for fincast transactions, forecasts, and scenarios.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TxType is the direction of a transaction.
type TxType string

const (
	Income  TxType = "INCOME"
	Expense TxType = "EXPENSE"
)

// ParseTxType accepts INCOME/EXPENSE in any case.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is one historical money movement. The engine treats it as read-only.
type Transaction struct {
	ID          string    `json:"id,omitempty"`
	Type        TxType    `json:"type"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	AccountID   string    `json:"accountId"`
	Description string    `json:"description,omitempty"`
	IsRecurring bool      `json:"isRecurring,omitempty"`
	IsSimulated bool      `json:"isSimulated,omitempty"`
}

// IsExpense reports whether t counts toward spend forecasts.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// TransactionFilter narrows a transaction listing. Zero fields match everything.
type TransactionFilter struct {
	UserID    string
	AccountID string
	Type      TxType
	Since     time.Time
	Until     time.Time
}

// AllAccounts is the account key used when a forecast spans every account.
const AllAccounts = "all"
