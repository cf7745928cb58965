package source

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/fincast/internal/model"
)

// ErrInvalidRecord marks a row that could not be turned into a transaction.
var ErrInvalidRecord = errors.New("invalid record")

// RawRecord is one transaction as it appears in an import file. Amount stays
// a string so it can be parsed exactly.
type RawRecord struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	AccountID   string `json:"account_id"`
	Description string `json:"description,omitempty"`
	Recurring   bool   `json:"is_recurring,omitempty"`
}

// RowError reports a rejected row. Line is 1-based and counts the CSV header.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrInvalidRecord }

// ImportResult holds the output of importing a single file.
type ImportResult struct {
	Path         string
	Transactions []model.Transaction
	Rows         int
	Errors       []*RowError
}

// DiscoveredFile is an importable file found during directory scanning.
type DiscoveredFile struct {
	Path   string
	Format Format
}

// Format is the encoding of an import file.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)
