package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

func TestCompareActuals(t *testing.T) {
	past := []model.StoredPrediction{
		{
			AccountID: model.AllAccounts,
			Prediction: model.Prediction{
				Month:      time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
				Categories: map[string]model.CategoryForecast{"groceries": {Amount: 100, Confidence: 0.8}},
				Total:      100,
			},
		},
		{
			AccountID: model.AllAccounts,
			Prediction: model.Prediction{
				Month: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC),
				Total: 500,
			},
		},
	}
	history := []model.Transaction{
		expense("groceries", 120, day(2026, time.September, 3)),
		expense("fuel", 50, day(2026, time.September, 9)),
		expense("fuel", 70, day(2026, time.October, 1)),
		{Type: model.Income, Amount: 3000, Category: "salary", Date: day(2026, time.September, 1)},
	}

	reports := CompareActuals(past, history, refNow)
	if len(reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1 (future month skipped)", len(reports))
	}

	r := reports[0]
	if r.ActualTotal != 170 {
		t.Errorf("ActualTotal = %.2f, want 170", r.ActualTotal)
	}
	if math.Abs(r.PercentageDiff-70) > 1e-9 {
		t.Errorf("PercentageDiff = %.2f, want 70", r.PercentageDiff)
	}
	g := r.Categories["groceries"]
	if g.Difference != 20 || math.Abs(g.PercentageDiff-20) > 1e-9 {
		t.Errorf("groceries = %+v, want diff 20 / 20%%", g)
	}
	f := r.Categories["fuel"]
	if f.Predicted != 0 || f.Actual != 50 || f.PercentageDiff != 100 {
		t.Errorf("fuel = %+v, want unpredicted 50 at 100%%", f)
	}
}

func TestCompareActuals_AccountFilter(t *testing.T) {
	past := []model.StoredPrediction{{
		AccountID: "acc-2",
		Prediction: model.Prediction{
			Month: time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	history := []model.Transaction{expense("fuel", 50, day(2026, time.September, 9))} // acc-1

	reports := CompareActuals(past, history, refNow)
	if reports[0].ActualTotal != 0 {
		t.Errorf("ActualTotal = %.2f, want 0 for other account", reports[0].ActualTotal)
	}
	if reports[0].PercentageDiff != 0 {
		t.Errorf("PercentageDiff = %.2f, want 0 when nothing predicted", reports[0].PercentageDiff)
	}
}
