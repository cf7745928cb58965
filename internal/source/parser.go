// Package source imports transactions from CSV and JSONL files.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fincast/internal/model"
)

var requiredColumns = []string{"type", "amount", "category", "date", "account_id"}

// ImportFile opens df and parses it according to its format.
func ImportFile(df DiscoveredFile) (ImportResult, error) {
	f, err := os.Open(df.Path)
	if err != nil {
		return ImportResult{Path: df.Path}, err
	}
	defer func() { _ = f.Close() }()

	var res ImportResult
	switch df.Format {
	case FormatCSV:
		res, err = ImportCSV(f)
	case FormatJSONL:
		res, err = ImportJSONL(f)
	default:
		err = fmt.Errorf("unsupported format %q", df.Format)
	}
	res.Path = df.Path
	return res, err
}

// ImportCSV reads a CSV file with a header row naming at least type, amount,
// category, date and account_id. Column order is free; description and
// is_recurring are optional. Bad rows are collected in Errors and skipped.
func ImportCSV(r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportResult{}, fmt.Errorf("empty csv")
		}
		return ImportResult{}, fmt.Errorf("reading csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return ImportResult{}, fmt.Errorf("csv header missing column %q", c)
		}
	}

	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var res ImportResult
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Rows++
				res.Errors = append(res.Errors, &RowError{Line: pe.Line, Reason: pe.Err.Error()})
				continue
			}
			return res, fmt.Errorf("reading csv: %w", err)
		}
		res.Rows++
		line, _ := cr.FieldPos(0)

		raw := RawRecord{
			Type:        get(rec, "type"),
			Amount:      get(rec, "amount"),
			Category:    get(rec, "category"),
			Date:        get(rec, "date"),
			AccountID:   get(rec, "account_id"),
			Description: get(rec, "description"),
		}
		switch strings.ToLower(get(rec, "is_recurring")) {
		case "1", "true", "yes":
			raw.Recurring = true
		}

		tx, reason := raw.toTransaction()
		if reason != "" {
			res.Errors = append(res.Errors, &RowError{Line: line, Reason: reason})
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res, nil
}

// ImportJSONL reads one JSON object per line. Blank lines are skipped; amount
// may be a JSON number or a string.
func ImportJSONL(r io.Reader) (ImportResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		res  ImportResult
		line int
	)
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		res.Rows++

		var raw jsonRecord
		if err := json.Unmarshal(b, &raw); err != nil {
			res.Errors = append(res.Errors, &RowError{Line: line, Reason: "malformed json: " + err.Error()})
			continue
		}
		tx, reason := raw.record().toTransaction()
		if reason != "" {
			res.Errors = append(res.Errors, &RowError{Line: line, Reason: reason})
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading jsonl: %w", err)
	}
	return res, nil
}

// jsonRecord accepts amount as either a number or a string.
type jsonRecord struct {
	RawRecord
	Amount json.Number `json:"amount"`
}

func (j jsonRecord) record() RawRecord {
	r := j.RawRecord
	r.Amount = j.Amount.String()
	return r
}

func (r RawRecord) toTransaction() (model.Transaction, string) {
	typ, err := model.ParseTxType(r.Type)
	if err != nil {
		return model.Transaction{}, err.Error()
	}

	if r.Amount == "" {
		return model.Transaction{}, "amount is required"
	}
	amt, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return model.Transaction{}, fmt.Sprintf("amount %q is not a number", r.Amount)
	}
	if amt.IsNegative() {
		return model.Transaction{}, fmt.Sprintf("amount %s is negative", amt)
	}

	if strings.TrimSpace(r.Category) == "" {
		return model.Transaction{}, "category is required"
	}
	if strings.TrimSpace(r.AccountID) == "" {
		return model.Transaction{}, "account_id is required"
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return model.Transaction{}, err.Error()
	}

	return model.Transaction{
		ID:          uuid.NewString(),
		Type:        typ,
		Amount:      amt.InexactFloat64(),
		Category:    strings.TrimSpace(r.Category),
		Date:        date,
		AccountID:   strings.TrimSpace(r.AccountID),
		Description: r.Description,
		IsRecurring: r.Recurring,
	}, ""
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q is not RFC3339 or YYYY-MM-DD", s)
}
