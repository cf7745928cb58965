package model

import (
	"encoding/json"
	"time"
)

// SimulationKind tags a SimulationResult variant.
type SimulationKind string

const (
	KindExpense   SimulationKind = "expense"
	KindIncome    SimulationKind = "income"
	KindReduction SimulationKind = "reduction"
	KindSavings   SimulationKind = "savings"
)

// RecurringItem is a hypothetical monthly expense or income.
type RecurringItem struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	AccountID   string  `json:"accountId,omitempty"`
}

// ReductionMode selects how a category reduction is applied.
type ReductionMode string

const (
	// ReduceFutureOnly scales future-dated history entries and re-forecasts.
	ReduceFutureOnly ReductionMode = "future-only"
	// ReduceForecast scales the baseline forecast directly.
	ReduceForecast ReductionMode = "forecast"
)

// ReductionParams describes a category spending cut.
type ReductionParams struct {
	Category   string        `json:"category"`
	Percentage *float64      `json:"reductionPercentage"`
	Mode       ReductionMode `json:"mode,omitempty"`
}

// SavingsPlan describes a recurring contribution into an account.
type SavingsPlan struct {
	InitialAmount float64  `json:"initialAmount"`
	MonthlyAmount *float64 `json:"monthlyAmount"`
	InterestRate  float64  `json:"interestRate,omitempty"` // annual, percent
	AccountID     string   `json:"accountId,omitempty"`
}

// DirectImpact is the exact overlay applied by expense/income simulations.
type DirectImpact struct {
	MonthlyImpact float64 `json:"monthlyImpact"`
	TotalImpact   float64 `json:"totalImpact"`
	Months        int     `json:"months"`
	IsIncome      bool    `json:"isIncome,omitempty"`
}

// NetWorthPoint is one month of a savings projection.
type NetWorthPoint struct {
	Month  time.Time `json:"month"`
	Amount float64   `json:"amount"`
}

// SimulationResult pairs a baseline forecast with a forecast under a hypothetical.
// Exactly the fields belonging to Kind are populated.
type SimulationResult struct {
	Kind                 SimulationKind `json:"type"`
	OriginalPredictions  []Prediction   `json:"originalPredictions"`
	SimulatedPredictions []Prediction   `json:"simulatedPredictions"`

	// expense / income
	NewExpense   *RecurringItem `json:"newExpense,omitempty"`
	NewIncome    *RecurringItem `json:"newIncome,omitempty"`
	DirectImpact *DirectImpact  `json:"directImpact,omitempty"`

	// reduction
	Category            string        `json:"category,omitempty"`
	ReductionPercentage float64       `json:"reductionPercentage"`
	ReductionMode       ReductionMode `json:"reductionMode,omitempty"`
	ScaledTransactions  int           `json:"scaledTransactions"`

	// savings
	NetWorthProjection []NetWorthPoint `json:"netWorthProjection,omitempty"`
	SavingsPlan        *SavingsPlan    `json:"savingsPlan,omitempty"`
}

// MonthlyDeltas returns simulated minus original total for each forecast month.
func (r SimulationResult) MonthlyDeltas() []float64 {
	n := len(r.OriginalPredictions)
	if len(r.SimulatedPredictions) < n {
		n = len(r.SimulatedPredictions)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = r.SimulatedPredictions[i].Total - r.OriginalPredictions[i].Total
	}
	return out
}

// Scenario is a saved simulation.
type Scenario struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Kind        SimulationKind  `json:"type"`
	Parameters  json.RawMessage `json:"parameters"`
	Results     json.RawMessage `json:"results"`
	CreatedAt   time.Time       `json:"createdAt"`
}
