// Package forecast turns transaction history into per-category monthly spend forecasts.
//
// Every function is a pure function of its inputs. The reference date is always
// passed in as now; nothing here reads the wall clock.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

const (
	// DefaultWindow is the moving-average look-back used by GeneratePredictions.
	DefaultWindow = 3

	// LowDataConfidence is reported when a category has fewer than minConfidencePoints expenses.
	LowDataConfidence = 0.3

	minConfidencePoints = 3
)

// SeasonalProfile maps a calendar month index (0 = January) to a multiplier
// relative to the category's overall average. Missing months mean 1.0.
type SeasonalProfile map[int]float64

// Factor returns the multiplier for month, defaulting to 1 when absent.
func (p SeasonalProfile) Factor(month time.Month) float64 {
	if f, ok := p[int(month)-1]; ok {
		return f
	}
	return 1
}

// MonthStart returns the first instant of t's calendar month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MovingAverage sums expenses dated in [start of the month window months before now, now]
// and divides by window. The denominator is always the nominal window length.
// An empty category matches every category. window must be >= 1; smaller values yield 0.
func MovingAverage(txs []model.Transaction, window int, category string, now time.Time) float64 {
	if window < 1 || len(txs) == 0 {
		return 0
	}

	start := MonthStart(now).AddDate(0, -window, 0)

	var total float64
	matched := 0
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		if t.Date.Before(start) || t.Date.After(now) {
			continue
		}
		total += t.Amount
		matched++
	}

	if matched == 0 {
		return 0
	}
	return total / float64(window)
}

// SeasonalFactors groups a category's expenses by calendar month across all years
// and returns each month's average transaction amount divided by the category's
// overall average transaction amount. A nil loc means UTC.
func SeasonalFactors(txs []model.Transaction, category string, loc *time.Location) SeasonalProfile {
	if loc == nil {
		loc = time.UTC
	}
	var (
		totals [12]float64
		counts [12]int
		sum    float64
		n      int
	)

	for _, t := range txs {
		if !t.IsExpense() || t.Category != category {
			continue
		}
		m := int(t.Date.In(loc).Month()) - 1
		totals[m] += t.Amount
		counts[m]++
		sum += t.Amount
		n++
	}

	profile := make(SeasonalProfile)
	if n == 0 {
		return profile
	}
	global := sum / float64(n)
	if global == 0 {
		// all-zero history carries no seasonal signal
		return profile
	}

	for m := 0; m < 12; m++ {
		if counts[m] == 0 {
			continue
		}
		profile[m] = (totals[m] / float64(counts[m])) / global
	}
	return profile
}

// Confidence scores how forecastable a category is from the coefficient of
// variation of its expense amounts: clamp(1 - stddev/mean, 0, 1).
func Confidence(txs []model.Transaction, category string) float64 {
	var amounts []float64
	for _, t := range txs {
		if t.IsExpense() && t.Category == category {
			amounts = append(amounts, t.Amount)
		}
	}

	if len(amounts) < minConfidencePoints {
		return LowDataConfidence
	}

	var sum float64
	for _, a := range amounts {
		sum += a
	}
	mean := sum / float64(len(amounts))
	if mean <= 0 {
		return 0
	}

	var sq float64
	for _, a := range amounts {
		d := a - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(amounts)))

	return clamp01(1 - stddev/mean)
}

// Categories returns the distinct expense categories in txs, sorted.
func Categories(txs []model.Transaction) []string {
	seen := make(map[string]struct{})
	for _, t := range txs {
		if t.IsExpense() {
			seen[t.Category] = struct{}{}
		}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// GeneratePredictions forecasts futureMonths calendar months, starting with the
// month after now. Each category's amount is its 3-month moving average scaled by
// the seasonal factor of the target month. An empty history yields no predictions.
func GeneratePredictions(txs []model.Transaction, futureMonths int, now time.Time) []model.Prediction {
	if len(txs) == 0 || futureMonths < 1 {
		return []model.Prediction{}
	}

	type categoryModel struct {
		base       float64
		seasonal   SeasonalProfile
		confidence float64
	}

	cats := Categories(txs)
	models := make(map[string]categoryModel, len(cats))
	for _, c := range cats {
		models[c] = categoryModel{
			base:       MovingAverage(txs, DefaultWindow, c, now),
			seasonal:   SeasonalFactors(txs, c, now.Location()),
			confidence: Confidence(txs, c),
		}
	}

	first := MonthStart(now)
	predictions := make([]model.Prediction, 0, futureMonths)
	for i := 1; i <= futureMonths; i++ {
		target := first.AddDate(0, i, 0)
		p := model.Prediction{
			Month:      target,
			Categories: make(map[string]model.CategoryForecast, len(cats)),
		}

		// sorted iteration keeps the float summation order stable
		for _, c := range cats {
			cm := models[c]
			amount := math.Max(0, cm.base*cm.seasonal.Factor(target.Month()))
			p.Categories[c] = model.CategoryForecast{
				Amount:     amount,
				Confidence: cm.confidence,
			}
			p.Total += amount
		}

		predictions = append(predictions, p)
	}

	return predictions
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
