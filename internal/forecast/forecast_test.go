package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/theirongolddev/fincast/internal/model"
)

var refNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

func expense(category string, amount float64, date time.Time) model.Transaction {
	return model.Transaction{
		Type:      model.Expense,
		Amount:    amount,
		Category:  category,
		Date:      date,
		AccountID: "acc-1",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

// monthlyRent returns one rent expense on the 5th of each of the n months before refNow's month.
func monthlyRent(n int, amount float64) []model.Transaction {
	var txs []model.Transaction
	for i := 1; i <= n; i++ {
		txs = append(txs, expense("rent", amount, MonthStart(refNow).AddDate(0, -i, 4).Add(10*time.Hour)))
	}
	return txs
}

func TestMovingAverage_LastThreeMonths(t *testing.T) {
	txs := monthlyRent(3, 1000)

	got := MovingAverage(txs, 3, "rent", refNow)
	if got != 1000 {
		t.Fatalf("MovingAverage = %.2f, want 1000", got)
	}
}

func TestMovingAverage_DividesByWindowNotCount(t *testing.T) {
	txs := []model.Transaction{expense("food", 90, day(2026, time.September, 10))}

	got := MovingAverage(txs, 3, "food", refNow)
	if got != 30 {
		t.Fatalf("MovingAverage = %.2f, want 30 (90 / 3 months)", got)
	}
}

func TestMovingAverage_WindowBounds(t *testing.T) {
	txs := []model.Transaction{
		expense("food", 100, day(2026, time.June, 30)),                            // before window start (Jul 1)
		expense("food", 300, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)), // exactly at start
		expense("food", 600, refNow),                                              // exactly now
		expense("food", 900, refNow.Add(time.Minute)),                             // future
		{Type: model.Income, Amount: 5000, Category: "food", Date: day(2026, time.August, 1)},
	}

	got := MovingAverage(txs, 3, "food", refNow)
	if got != 300 {
		t.Fatalf("MovingAverage = %.2f, want 300 ((300+600)/3)", got)
	}
}

func TestMovingAverage_AllCategoriesAndEmpty(t *testing.T) {
	txs := []model.Transaction{
		expense("food", 60, day(2026, time.September, 1)),
		expense("fuel", 30, day(2026, time.September, 2)),
	}
	if got := MovingAverage(txs, 3, "", refNow); got != 30 {
		t.Errorf("MovingAverage(all) = %.2f, want 30", got)
	}
	if got := MovingAverage(txs, 3, "rent", refNow); got != 0 {
		t.Errorf("MovingAverage(no match) = %.2f, want 0", got)
	}
	if got := MovingAverage(nil, 3, "", refNow); got != 0 {
		t.Errorf("MovingAverage(nil) = %.2f, want 0", got)
	}
	if got := MovingAverage(txs, 0, "", refNow); got != 0 {
		t.Errorf("MovingAverage(window 0) = %.2f, want 0", got)
	}
}

func TestSeasonalFactors(t *testing.T) {
	txs := []model.Transaction{
		expense("gifts", 100, day(2024, time.January, 10)),
		expense("gifts", 100, day(2025, time.January, 10)),
		expense("gifts", 300, day(2024, time.December, 10)),
		expense("gifts", 300, day(2025, time.December, 10)),
		expense("rent", 5000, day(2025, time.March, 1)),
	}

	f := SeasonalFactors(txs, "gifts", time.UTC)
	if len(f) != 2 {
		t.Fatalf("len(factors) = %d, want 2", len(f))
	}
	if f[0] != 0.5 {
		t.Errorf("January factor = %.3f, want 0.5", f[0])
	}
	if f[11] != 1.5 {
		t.Errorf("December factor = %.3f, want 1.5", f[11])
	}
	if got := f.Factor(time.June); got != 1 {
		t.Errorf("missing month factor = %.3f, want 1", got)
	}
}

func TestSeasonalFactors_SingleMonthAndEmpty(t *testing.T) {
	txs := []model.Transaction{
		expense("rent", 800, day(2025, time.May, 1)),
		expense("rent", 1200, day(2026, time.May, 1)),
	}
	f := SeasonalFactors(txs, "rent", time.UTC)
	if len(f) != 1 || f[4] != 1 {
		t.Fatalf("factors = %v, want {4: 1}", f)
	}

	if got := SeasonalFactors(txs, "travel", time.UTC); len(got) != 0 {
		t.Errorf("unknown category factors = %v, want empty", got)
	}

	zeros := []model.Transaction{expense("free", 0, day(2026, time.May, 1))}
	if got := SeasonalFactors(zeros, "free", time.UTC); len(got) != 0 {
		t.Errorf("all-zero factors = %v, want empty", got)
	}

	if got := SeasonalFactors(txs, "rent", nil); len(got) != 1 || got[4] != 1 {
		t.Errorf("nil location factors = %v, want {4: 1}", got)
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(monthlyRent(12, 1000), "rent"); got != 1 {
		t.Errorf("constant spend confidence = %.3f, want 1", got)
	}

	varied := []model.Transaction{
		expense("rent", 500, day(2026, time.June, 1)),
		expense("rent", 1500, day(2026, time.July, 1)),
		expense("rent", 500, day(2026, time.August, 1)),
		expense("rent", 1500, day(2026, time.September, 1)),
	}
	got := Confidence(varied, "rent")
	if got >= 1 {
		t.Errorf("varied spend confidence = %.3f, want < 1", got)
	}
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("varied spend confidence = %.3f, want 0.5", got)
	}
}

func TestConfidence_Degenerate(t *testing.T) {
	if got := Confidence(monthlyRent(2, 1000), "rent"); got != LowDataConfidence {
		t.Errorf("two points confidence = %.2f, want %.2f", got, LowDataConfidence)
	}
	if got := Confidence(nil, "rent"); got != LowDataConfidence {
		t.Errorf("no data confidence = %.2f, want %.2f", got, LowDataConfidence)
	}

	zeros := monthlyRent(4, 0)
	got := Confidence(zeros, "rent")
	if math.IsNaN(got) || got != 0 {
		t.Errorf("zero-mean confidence = %v, want 0", got)
	}

	wild := []model.Transaction{
		expense("misc", 1, day(2026, time.June, 1)),
		expense("misc", 1, day(2026, time.July, 1)),
		expense("misc", 1, day(2026, time.July, 2)),
		expense("misc", 1000, day(2026, time.August, 1)),
	}
	if got := Confidence(wild, "misc"); got != 0 {
		t.Errorf("CV >= 1 confidence = %.3f, want 0", got)
	}
}

func TestGeneratePredictions_Empty(t *testing.T) {
	got := GeneratePredictions(nil, 3, refNow)
	if got == nil || len(got) != 0 {
		t.Fatalf("GeneratePredictions(nil) = %v, want empty slice", got)
	}
}

func TestGeneratePredictions_CountAndOrder(t *testing.T) {
	txs := monthlyRent(6, 1000)
	for _, n := range []int{1, 3, 12} {
		preds := GeneratePredictions(txs, n, refNow)
		if len(preds) != n {
			t.Fatalf("len = %d, want %d", len(preds), n)
		}
		for i := 1; i < len(preds); i++ {
			if !preds[i].Month.After(preds[i-1].Month) {
				t.Fatalf("month %d (%s) not after %s", i, preds[i].Label(), preds[i-1].Label())
			}
		}
	}

	preds := GeneratePredictions(txs, 3, refNow)
	want := []string{"Nov 2026", "Dec 2026", "Jan 2027"}
	for i, w := range want {
		if preds[i].Label() != w {
			t.Errorf("preds[%d].Label() = %q, want %q", i, preds[i].Label(), w)
		}
	}
}

func TestGeneratePredictions_EndOfMonthNow(t *testing.T) {
	now := time.Date(2027, time.January, 31, 18, 0, 0, 0, time.UTC)
	txs := []model.Transaction{expense("rent", 900, day(2027, time.January, 3))}

	preds := GeneratePredictions(txs, 2, now)
	if preds[0].Month.Month() != time.February || preds[1].Month.Month() != time.March {
		t.Fatalf("months = %s, %s; want Feb, Mar", preds[0].Label(), preds[1].Label())
	}
}

func TestGeneratePredictions_SeasonalAndTotals(t *testing.T) {
	txs := monthlyRent(3, 1000)
	// groceries cost double in November historically
	txs = append(txs,
		expense("groceries", 200, day(2025, time.November, 20)),
		expense("groceries", 100, day(2026, time.August, 20)),
		expense("groceries", 100, day(2026, time.September, 20)),
		model.Transaction{Type: model.Income, Amount: 4000, Category: "salary", Date: day(2026, time.September, 1)},
	)

	preds := GeneratePredictions(txs, 2, refNow)

	nov := preds[0]
	if _, ok := nov.Categories["salary"]; ok {
		t.Error("income category should not be forecast")
	}
	if got := nov.Categories["rent"].Amount; got != 1000 {
		t.Errorf("Nov rent = %.2f, want 1000", got)
	}
	// moving average 200/3, Nov factor 200 / (400/3) = 1.5
	if got := nov.Categories["groceries"].Amount; math.Abs(got-100) > 1e-9 {
		t.Errorf("Nov groceries = %.4f, want 100", got)
	}
	if got := preds[1].Categories["groceries"].Amount; math.Abs(got-200.0/3) > 1e-9 {
		t.Errorf("Dec groceries = %.4f, want 66.67 (no December history)", got)
	}

	for _, p := range preds {
		var sum float64
		for _, c := range Categories(txs) {
			sum += p.Categories[c].Amount
		}
		if p.Total != sum {
			t.Errorf("%s total = %.4f, want %.4f", p.Label(), p.Total, sum)
		}
	}
}

func TestGeneratePredictions_NonNegativeAndBounded(t *testing.T) {
	txs := []model.Transaction{
		expense("a", 0, day(2026, time.September, 1)),
		expense("a", 0, day(2026, time.August, 1)),
		expense("b", 10, day(2026, time.September, 1)),
		expense("b", 9000, day(2026, time.March, 1)),
		expense("c", 50, day(2020, time.January, 1)),
	}

	for _, p := range GeneratePredictions(txs, 12, refNow) {
		if p.Total < 0 {
			t.Fatalf("%s total %.2f < 0", p.Label(), p.Total)
		}
		for c, f := range p.Categories {
			if f.Amount < 0 || math.IsNaN(f.Amount) {
				t.Errorf("%s %s amount = %v", p.Label(), c, f.Amount)
			}
			if f.Confidence < 0 || f.Confidence > 1 || math.IsNaN(f.Confidence) {
				t.Errorf("%s %s confidence = %v", p.Label(), c, f.Confidence)
			}
		}
	}
}

func TestGeneratePredictions_Deterministic(t *testing.T) {
	txs := monthlyRent(9, 1234.56)
	txs = append(txs,
		expense("fun", 13.37, day(2026, time.September, 3)),
		expense("fun", 99.99, day(2026, time.August, 3)),
		expense("fuel", 42.10, day(2026, time.July, 3)),
	)

	a := GeneratePredictions(txs, 6, refNow)
	b := GeneratePredictions(txs, 6, refNow)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("predictions differ between runs (-first +second):\n%s", diff)
	}
}
