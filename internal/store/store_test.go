package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fincast.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestTransactions_InsertAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	txs := []model.Transaction{
		{Type: model.Expense, Amount: 12.34, Category: "food", AccountID: "a1", Date: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)},
		{Type: model.Expense, Amount: 1000, Category: "rent", AccountID: "a2", Date: time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)},
		{Type: model.Income, Amount: 3000.5, Category: "salary", AccountID: "a1", Date: time.Date(2026, 9, 3, 8, 0, 0, 0, time.UTC), IsRecurring: true},
	}
	if err := s.InsertTransactions(ctx, "u1", txs); err != nil {
		t.Fatalf("InsertTransactions: %v", err)
	}
	if err := s.InsertTransactions(ctx, "u2", txs[:1]); err != nil {
		t.Fatalf("InsertTransactions u2: %v", err)
	}

	all, err := s.ListTransactions(ctx, model.TransactionFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Category != "salary" {
		t.Errorf("first = %s, want newest (salary)", all[0].Category)
	}
	if all[0].Amount != 3000.5 || !all[0].IsRecurring || all[0].ID == "" {
		t.Errorf("salary row = %+v", all[0])
	}
	if all[2].Amount != 12.34 {
		t.Errorf("food amount = %v, want 12.34", all[2].Amount)
	}

	acct, err := s.ListTransactions(ctx, model.TransactionFilter{UserID: "u1", AccountID: "a1", Type: model.Expense})
	if err != nil {
		t.Fatal(err)
	}
	if len(acct) != 1 || acct[0].Category != "food" {
		t.Errorf("filtered = %+v, want only food", acct)
	}

	ranged, err := s.ListTransactions(ctx, model.TransactionFilter{
		UserID: "u1",
		Since:  time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		Until:  time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 1 || ranged[0].Category != "rent" {
		t.Errorf("ranged = %+v, want only rent", ranged)
	}

	n, err := s.TransactionCount(ctx, "u2")
	if err != nil || n != 1 {
		t.Errorf("TransactionCount(u2) = %d, %v; want 1", n, err)
	}
}

func TestUpsertPredictions_OverwritesOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	month := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	first := []model.Prediction{{Month: month, Total: 100, Categories: map[string]model.CategoryForecast{"food": {Amount: 100, Confidence: 0.3}}}}
	second := []model.Prediction{{Month: month, Total: 250, Categories: map[string]model.CategoryForecast{"food": {Amount: 250, Confidence: 0.8}}}}

	if err := s.UpsertPredictions(ctx, "u1", "", first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertPredictions(ctx, "u1", "", second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := s.UpsertPredictions(ctx, "u1", "a1", first); err != nil {
		t.Fatalf("account upsert: %v", err)
	}

	got, err := s.ListPredictions(ctx, "u1", time.Time{})
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (all + a1)", len(got))
	}
	if got[0].AccountID != "a1" || got[1].AccountID != model.AllAccounts {
		t.Fatalf("accounts = %s, %s", got[0].AccountID, got[1].AccountID)
	}
	if got[1].Total != 250 || got[1].Categories["food"].Confidence != 0.8 {
		t.Errorf("all-accounts row = %+v, want latest upsert", got[1])
	}
	if !got[1].Month.Equal(month) {
		t.Errorf("month = %v, want %v", got[1].Month, month)
	}

	before, err := s.ListPredictions(ctx, "u1", month)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 0 {
		t.Errorf("ListPredictions(before Nov) = %d rows, want 0", len(before))
	}
}

func TestScenarios(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older, err := s.SaveScenario(ctx, model.Scenario{
		UserID:     "u1",
		Name:       "gym",
		Kind:       model.KindExpense,
		Parameters: json.RawMessage(`{"amount":40}`),
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}
	if older.ID == "" {
		t.Fatal("SaveScenario did not assign an ID")
	}
	newer, err := s.SaveScenario(ctx, model.Scenario{UserID: "u1", Name: "raise", Kind: model.KindIncome})
	if err != nil {
		t.Fatal(err)
	}

	list, err := s.ListScenarios(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("list = %+v, want newest first", list)
	}

	got, err := s.GetScenario(ctx, older.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "gym" || string(got.Parameters) != `{"amount":40}` || string(got.Results) != "{}" {
		t.Errorf("GetScenario = %+v", got)
	}

	if _, err := s.GetScenario(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetScenario(missing) err = %v, want ErrNotFound", err)
	}
}
