package forecast

import (
	"sort"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

// CompareActuals matches stored predictions for months that have already ended
// against the expenses actually recorded in those months.
func CompareActuals(past []model.StoredPrediction, history []model.Transaction, now time.Time) []model.AccuracyReport {
	current := MonthStart(now)

	reports := make([]model.AccuracyReport, 0, len(past))
	for _, sp := range past {
		month := MonthStart(sp.Month.In(now.Location()))
		if !month.Before(current) {
			continue
		}
		end := month.AddDate(0, 1, 0)

		actual := make(map[string]float64)
		var actualTotal float64
		for _, t := range history {
			if !t.IsExpense() {
				continue
			}
			if sp.AccountID != "" && sp.AccountID != model.AllAccounts && t.AccountID != sp.AccountID {
				continue
			}
			if t.Date.Before(month) || !t.Date.Before(end) {
				continue
			}
			actual[t.Category] += t.Amount
			actualTotal += t.Amount
		}

		cats := make(map[string]model.CategoryAccuracy, len(sp.Categories))
		for c, f := range sp.Categories {
			a := actual[c]
			cats[c] = model.CategoryAccuracy{
				Predicted:      f.Amount,
				Actual:         a,
				Difference:     a - f.Amount,
				PercentageDiff: percentDiff(a, f.Amount),
			}
		}
		for c, a := range actual {
			if _, ok := cats[c]; ok {
				continue
			}
			cats[c] = model.CategoryAccuracy{
				Actual:         a,
				Difference:     a,
				PercentageDiff: 100,
			}
		}

		reports = append(reports, model.AccuracyReport{
			Month:          month,
			AccountID:      sp.AccountID,
			PredictedTotal: sp.Total,
			ActualTotal:    actualTotal,
			Difference:     actualTotal - sp.Total,
			PercentageDiff: percentDiff(actualTotal, sp.Total),
			Categories:     cats,
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Month.Before(reports[j].Month)
	})
	return reports
}

func percentDiff(actual, predicted float64) float64 {
	if predicted <= 0 {
		return 0
	}
	return (actual - predicted) / predicted * 100
}
