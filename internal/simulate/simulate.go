// Package simulate answers what-if questions on top of the forecast engine.
//
// Every simulation returns the untouched baseline forecast alongside the
// forecast under the hypothetical. Inputs are validated before any forecasting
// work and the caller's history slice is never modified.
package simulate

import (
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/forecast"
	"github.com/theirongolddev/fincast/internal/model"
)

const (
	// IncomeConfidence is reported for a simulated income category.
	IncomeConfidence = 0.9

	// SavingsCategory tags the synthetic transactions injected by SavingsPlan.
	SavingsCategory = "savings"

	// MaxGoalMonths caps TimeToGoal at fifty years.
	MaxGoalMonths = 600
)

// NewExpense overlays a recurring monthly expense onto the baseline forecast.
// Every simulated month carries exactly item.Amount more in item.Category and in its total.
func NewExpense(history []model.Transaction, item model.RecurringItem, months int, now time.Time) (model.SimulationResult, error) {
	if err := validateRecurring(item, months); err != nil {
		return model.SimulationResult{}, err
	}

	original := forecast.GeneratePredictions(history, months, now)
	simulated := overlay(original, item, func(prev model.CategoryForecast, existed bool) float64 {
		if existed {
			return prev.Confidence
		}
		return IncomeConfidence
	})

	it := item
	return model.SimulationResult{
		Kind:                 model.KindExpense,
		OriginalPredictions:  original,
		SimulatedPredictions: simulated,
		NewExpense:           &it,
		DirectImpact:         directImpact(item.Amount, months, false),
	}, nil
}

// NewIncome overlays a recurring monthly income onto the baseline forecast.
// The income category is reported with IncomeConfidence.
func NewIncome(history []model.Transaction, item model.RecurringItem, months int, now time.Time) (model.SimulationResult, error) {
	if err := validateRecurring(item, months); err != nil {
		return model.SimulationResult{}, err
	}

	original := forecast.GeneratePredictions(history, months, now)
	simulated := overlay(original, item, func(model.CategoryForecast, bool) float64 {
		return IncomeConfidence
	})

	it := item
	return model.SimulationResult{
		Kind:                 model.KindIncome,
		OriginalPredictions:  original,
		SimulatedPredictions: simulated,
		NewIncome:            &it,
		DirectImpact:         directImpact(item.Amount, months, true),
	}, nil
}

// CategoryReduction cuts spending in one category by a percentage.
//
// In ReduceFutureOnly mode only expenses dated after now are scaled before
// re-forecasting, so histories without forward-dated entries produce an
// unchanged forecast; ScaledTransactions reports how many entries were touched.
// ReduceForecast scales the category's baseline forecast directly.
func CategoryReduction(history []model.Transaction, params model.ReductionParams, months int, now time.Time) (model.SimulationResult, error) {
	if err := validateMonths(months); err != nil {
		return model.SimulationResult{}, err
	}
	if strings.TrimSpace(params.Category) == "" {
		return model.SimulationResult{}, invalid("category", "required")
	}
	if params.Percentage == nil {
		return model.SimulationResult{}, invalid("reductionPercentage", "required")
	}
	pct := *params.Percentage
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return model.SimulationResult{}, invalid("reductionPercentage", "%v is outside [0, 100]", pct)
	}
	mode := params.Mode
	if mode == "" {
		mode = model.ReduceFutureOnly
	}
	if mode != model.ReduceFutureOnly && mode != model.ReduceForecast {
		return model.SimulationResult{}, invalid("mode", "unknown reduction mode %q", mode)
	}

	factor := 1 - pct/100
	original := forecast.GeneratePredictions(history, months, now)

	result := model.SimulationResult{
		Kind:                model.KindReduction,
		OriginalPredictions: original,
		Category:            params.Category,
		ReductionPercentage: pct,
		ReductionMode:       mode,
	}

	switch mode {
	case model.ReduceFutureOnly:
		scaled := make([]model.Transaction, len(history))
		for i, t := range history {
			if t.IsExpense() && t.Category == params.Category && t.Date.After(now) {
				t.Amount *= factor
				result.ScaledTransactions++
			}
			scaled[i] = t
		}
		result.SimulatedPredictions = forecast.GeneratePredictions(scaled, months, now)

	case model.ReduceForecast:
		simulated := make([]model.Prediction, len(original))
		for i, p := range original {
			sp := p.Clone()
			if cf, ok := sp.Categories[params.Category]; ok {
				reduced := cf.Amount * factor
				sp.Total -= cf.Amount - reduced
				cf.Amount = reduced
				sp.Categories[params.Category] = cf
			}
			simulated[i] = sp
		}
		result.SimulatedPredictions = simulated
	}

	return result, nil
}

// SavingsPlan projects a recurring contribution. The forecast comparison treats
// each contribution as a "savings" expense; the net-worth projection compounds
// the balance monthly and does not use the forecaster.
func SavingsPlan(history []model.Transaction, plan model.SavingsPlan, months int, now time.Time) (model.SimulationResult, error) {
	if err := validateMonths(months); err != nil {
		return model.SimulationResult{}, err
	}
	if plan.MonthlyAmount == nil {
		return model.SimulationResult{}, invalid("monthlyAmount", "required")
	}
	monthly := *plan.MonthlyAmount
	if err := nonNegative("monthlyAmount", monthly); err != nil {
		return model.SimulationResult{}, err
	}
	if err := nonNegative("initialAmount", plan.InitialAmount); err != nil {
		return model.SimulationResult{}, err
	}
	if err := nonNegative("interestRate", plan.InterestRate); err != nil {
		return model.SimulationResult{}, err
	}

	augmented := make([]model.Transaction, len(history), len(history)+months)
	copy(augmented, history)
	for i := 0; i < months; i++ {
		augmented = append(augmented, model.Transaction{
			Type:        model.Expense,
			Amount:      monthly,
			Category:    SavingsCategory,
			Date:        now.AddDate(0, i, 0),
			AccountID:   plan.AccountID,
			Description: "Planned savings",
			IsRecurring: true,
			IsSimulated: true,
		})
	}

	p := plan
	return model.SimulationResult{
		Kind:                 model.KindSavings,
		OriginalPredictions:  forecast.GeneratePredictions(history, months, now),
		SimulatedPredictions: forecast.GeneratePredictions(augmented, months, now),
		NetWorthProjection:   NetWorthProjection(plan.InitialAmount, monthly, plan.InterestRate, months, now),
		SavingsPlan:          &p,
	}, nil
}

// NetWorthProjection applies balance = (balance + monthly) * (1 + rate/100/12)
// once per month, starting in now's month.
func NetWorthProjection(initial, monthly, annualRate float64, months int, now time.Time) []model.NetWorthPoint {
	rate := annualRate / 100 / 12
	start := forecast.MonthStart(now)

	points := make([]model.NetWorthPoint, 0, months)
	balance := initial
	for i := 0; i < months; i++ {
		balance += monthly
		if rate != 0 {
			balance *= 1 + rate
		}
		points = append(points, model.NetWorthPoint{
			Month:  start.AddDate(0, i, 0),
			Amount: balance,
		})
	}
	return points
}

// TimeToGoal returns how many months of contributions reach target, using the
// same recurrence as NetWorthProjection. reached is false when the goal is not
// met within MaxGoalMonths.
func TimeToGoal(target, monthly, initial, annualRate float64) (months int, reached bool, err error) {
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return 0, false, invalid("targetAmount", "must be a positive finite number")
	}
	for _, f := range []struct {
		name  string
		value float64
	}{{"monthlyAmount", monthly}, {"initialAmount", initial}, {"interestRate", annualRate}} {
		if err := nonNegative(f.name, f.value); err != nil {
			return 0, false, err
		}
	}

	rate := annualRate / 100 / 12
	balance := initial
	for balance < target && months < MaxGoalMonths {
		balance += monthly
		balance *= 1 + rate
		months++
	}
	return months, balance >= target, nil
}

func validateMonths(months int) error {
	if months < 1 {
		return invalid("months", "must be at least 1, got %d", months)
	}
	return nil
}

// nonNegative rejects NaN, infinities and negative values.
func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a finite number, got %v", v)
	}
	if v < 0 {
		return invalid(field, "must not be negative, got %v", v)
	}
	return nil
}

func validateRecurring(item model.RecurringItem, months int) error {
	if err := validateMonths(months); err != nil {
		return err
	}
	if strings.TrimSpace(item.Category) == "" {
		return invalid("category", "required")
	}
	if math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) {
		return invalid("amount", "not a number")
	}
	if item.Amount <= 0 {
		return invalid("amount", "must be positive, got %v", item.Amount)
	}
	return nil
}

// overlay copies baseline and adds item.Amount to item.Category and the total of every month.
func overlay(baseline []model.Prediction, item model.RecurringItem, confidence func(model.CategoryForecast, bool) float64) []model.Prediction {
	out := make([]model.Prediction, len(baseline))
	for i, p := range baseline {
		sp := p.Clone()
		prev, existed := sp.Categories[item.Category]
		sp.Categories[item.Category] = model.CategoryForecast{
			Amount:     prev.Amount + item.Amount,
			Confidence: confidence(prev, existed),
		}
		sp.Total += item.Amount
		out[i] = sp
	}
	return out
}

func directImpact(amount float64, months int, income bool) *model.DirectImpact {
	return &model.DirectImpact{
		MonthlyImpact: amount,
		TotalImpact:   amount * float64(months),
		Months:        months,
		IsIncome:      income,
	}
}
