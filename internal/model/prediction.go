package model

import "time"

// CategoryForecast is the projected spend for one category in one month.
type CategoryForecast struct {
	Amount     float64 `json:"amount"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the forecast for one future calendar month.
type Prediction struct {
	Month      time.Time                   `json:"month"` // first instant of the target month
	Categories map[string]CategoryForecast `json:"categories"`
	Total      float64                     `json:"total"`
}

// Label renders the month as "Jan 2027".
func (p Prediction) Label() string {
	return p.Month.Format("Jan 2006")
}

// Clone returns a deep copy so overlays never alias the baseline's category map.
func (p Prediction) Clone() Prediction {
	cats := make(map[string]CategoryForecast, len(p.Categories))
	for k, v := range p.Categories {
		cats[k] = v
	}
	return Prediction{Month: p.Month, Categories: cats, Total: p.Total}
}

// StoredPrediction is a persisted prediction row keyed by (UserID, Month, AccountID).
type StoredPrediction struct {
	UserID    string
	AccountID string
	Prediction
	UpdatedAt time.Time
}

// CategoryAccuracy compares one category's predicted and actual spend.
type CategoryAccuracy struct {
	Predicted      float64 `json:"predicted"`
	Actual         float64 `json:"actual"`
	Difference     float64 `json:"difference"`
	PercentageDiff float64 `json:"percentageDiff"`
}

// AccuracyReport compares a past prediction month against what was actually spent.
type AccuracyReport struct {
	Month          time.Time                   `json:"month"`
	AccountID      string                      `json:"accountId"`
	PredictedTotal float64                     `json:"predictedTotal"`
	ActualTotal    float64                     `json:"actualTotal"`
	Difference     float64                     `json:"difference"`
	PercentageDiff float64                     `json:"percentageDiff"`
	Categories     map[string]CategoryAccuracy `json:"categories"`
}
