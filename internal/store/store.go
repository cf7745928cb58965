// Package store provides the SQLite-backed persistence for transactions,
// predictions, and saved scenarios.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fincast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// dateLayout is fixed-width so stored UTC timestamps sort lexically.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps the fincast database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertTransactions stores txs for userID in one transaction. Rows without an
// ID get a fresh UUID; existing IDs are replaced.
func (s *Store) InsertTransactions(ctx context.Context, userID string, txs []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO transactions
		(id, user_id, account_id, type, amount, category, description, date, is_recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	created := s.now().UTC().Format(time.RFC3339)
	for _, t := range txs {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		recurring := 0
		if t.IsRecurring {
			recurring = 1
		}
		_, err := stmt.ExecContext(ctx,
			id, userID, t.AccountID, string(t.Type),
			decimal.NewFromFloat(t.Amount).String(),
			t.Category, t.Description,
			t.Date.UTC().Format(dateLayout),
			recurring, created,
		)
		if err != nil {
			return fmt.Errorf("inserting transaction %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns transactions matching f, newest first.
func (s *Store) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.AccountID != "" && f.AccountID != model.AllAccounts {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.Since.UTC().Format(dateLayout))
	}
	if !f.Until.IsZero() {
		where = append(where, "date < ?")
		args = append(args, f.Until.UTC().Format(dateLayout))
	}

	query := `SELECT id, account_id, type, amount, category, description, date, is_recurring FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txs []model.Transaction
	for rows.Next() {
		var (
			t                 model.Transaction
			typ, amount, date string
			description       sql.NullString
			recurring         int
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &typ, &amount, &t.Category, &description, &date, &recurring); err != nil {
			return nil, err
		}

		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
		}
		t.Amount = d.InexactFloat64()
		t.Type = model.TxType(typ)
		t.Description = description.String
		t.IsRecurring = recurring != 0
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// TransactionCount returns the number of stored transactions for userID.
func (s *Store) TransactionCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// UpsertPredictions writes one row per prediction keyed by (userID, month, accountID),
// overwriting existing rows. An empty accountID is stored as model.AllAccounts.
func (s *Store) UpsertPredictions(ctx context.Context, userID, accountID string, preds []model.Prediction) error {
	if accountID == "" {
		accountID = model.AllAccounts
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	updated := s.now().UTC().Format(time.RFC3339)
	for _, p := range preds {
		cats, err := json.Marshal(p.Categories)
		if err != nil {
			return fmt.Errorf("encoding categories: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO predictions
			(user_id, month, account_id, total, categories, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, month, account_id) DO UPDATE SET
				total = excluded.total,
				categories = excluded.categories,
				updated_at = excluded.updated_at`,
			userID, p.Month.UTC().Format(time.RFC3339), accountID, p.Total, string(cats), updated,
		)
		if err != nil {
			return fmt.Errorf("upserting prediction %s: %w", p.Label(), err)
		}
	}

	return tx.Commit()
}

// ListPredictions returns stored predictions for userID with month before the
// given time (all when before is zero), oldest first.
func (s *Store) ListPredictions(ctx context.Context, userID string, before time.Time) ([]model.StoredPrediction, error) {
	query := `SELECT month, account_id, total, categories, updated_at FROM predictions WHERE user_id = ?`
	args := []any{userID}
	if !before.IsZero() {
		query += " AND month < ?"
		args = append(args, before.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY month, account_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.StoredPrediction
	for rows.Next() {
		var (
			sp                     model.StoredPrediction
			month, cats, updatedAt string
		)
		if err := rows.Scan(&month, &sp.AccountID, &sp.Total, &cats, &updatedAt); err != nil {
			return nil, err
		}
		sp.UserID = userID
		if sp.Month, err = time.Parse(time.RFC3339, month); err != nil {
			return nil, fmt.Errorf("prediction month %q: %w", month, err)
		}
		sp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		if err := json.Unmarshal([]byte(cats), &sp.Categories); err != nil {
			return nil, fmt.Errorf("prediction %s categories: %w", month, err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// SaveScenario persists sc, assigning ID and CreatedAt when unset.
func (s *Store) SaveScenario(ctx context.Context, sc model.Scenario) (model.Scenario, error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now().UTC()
	}
	if len(sc.Parameters) == 0 {
		sc.Parameters = json.RawMessage("{}")
	}
	if len(sc.Results) == 0 {
		sc.Results = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO scenarios
		(id, user_id, name, description, type, parameters, results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.UserID, sc.Name, sc.Description, string(sc.Kind),
		string(sc.Parameters), string(sc.Results), sc.CreatedAt.UTC().Format(dateLayout),
	)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("saving scenario: %w", err)
	}
	return sc, nil
}

// ListScenarios returns userID's saved scenarios, newest first.
func (s *Store) ListScenarios(ctx context.Context, userID string) ([]model.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, name, description, type, parameters, results, created_at
		FROM scenarios WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// GetScenario returns one scenario by ID or ErrNotFound.
func (s *Store) GetScenario(ctx context.Context, id string) (model.Scenario, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, name, description, type, parameters, results, created_at
		FROM scenarios WHERE id = ?`, id)
	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scenario{}, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	return sc, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(r scanner) (model.Scenario, error) {
	var (
		sc                        model.Scenario
		description               sql.NullString
		kind, params, res, create string
	)
	if err := r.Scan(&sc.ID, &sc.UserID, &sc.Name, &description, &kind, &params, &res, &create); err != nil {
		return model.Scenario{}, err
	}
	sc.Description = description.String
	sc.Kind = model.SimulationKind(kind)
	sc.Parameters = json.RawMessage(params)
	sc.Results = json.RawMessage(res)
	sc.CreatedAt, _ = time.Parse(dateLayout, create)
	return sc, nil
}
