package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/fincast/internal/forecast"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/simulate"
)

const maxMonths = 60

var errUnknownKind = errors.New("unknown simulation kind")

// ForecastResponse is served at /v1/forecast.
type ForecastResponse struct {
	UserID      string             `json:"user_id"`
	AccountID   string             `json:"account_id"`
	Months      int                `json:"months"`
	GeneratedAt time.Time          `json:"generated_at"`
	Predictions []model.Prediction `json:"predictions"`
}

// SimulateResponse is served at /v1/simulate/{kind}.
type SimulateResponse struct {
	Result   model.SimulationResult `json:"result"`
	Warnings []string               `json:"warnings,omitempty"`
}

// simulateEnvelope holds the fields every simulate body may carry.
type simulateEnvelope struct {
	Months    int    `json:"months"`
	AccountID string `json:"accountId"`
}

func promhttpHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	months := s.cfg.Months
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxMonths {
			writeError(w, http.StatusBadRequest, fmt.Errorf("months must be an integer between 1 and %d", maxMonths))
			return
		}
		months = n
	}
	account := s.cfg.AccountID
	if v := r.URL.Query().Get("account"); v != "" {
		account = v
	}

	txs, err := s.cfg.Repo.ListTransactions(r.Context(), model.TransactionFilter{UserID: s.cfg.UserID, AccountID: account})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	start := time.Now()
	now := s.now()
	preds := forecast.GeneratePredictions(txs, months, now)
	s.cfg.Metrics.RecordForecast(len(forecast.Categories(txs)), time.Since(start))

	writeJSON(w, http.StatusOK, ForecastResponse{
		UserID:      s.cfg.UserID,
		AccountID:   account,
		Months:      months,
		GeneratedAt: now,
		Predictions: preds,
	})
}

func (s *Service) handleSimulate(w http.ResponseWriter, r *http.Request) {
	kind := model.SimulationKind(r.PathValue("kind"))

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var env simulateEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	months := env.Months
	if months == 0 {
		months = s.cfg.SimulateMonths
	}
	if months > simulate.MaxGoalMonths {
		writeError(w, http.StatusBadRequest, fmt.Errorf("months must be at most %d", simulate.MaxGoalMonths))
		return
	}
	account := env.AccountID
	if account == "" {
		account = s.cfg.AccountID
	}

	txs, err := s.cfg.Repo.ListTransactions(r.Context(), model.TransactionFilter{UserID: s.cfg.UserID, AccountID: account})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	start := time.Now()
	res, err := runSimulation(kind, body, txs, months, s.now())
	s.cfg.Metrics.RecordSimulation(string(kind), err == nil, time.Since(start))
	switch {
	case errors.Is(err, errUnknownKind):
		writeError(w, http.StatusNotFound, err)
		return
	case simulate.IsInvalidParameter(err):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	resp := SimulateResponse{Result: res}
	if res.Kind == model.KindReduction && res.ReductionMode == model.ReduceFutureOnly && res.ScaledTransactions == 0 {
		msg := "no future-dated " + res.Category + " transactions to scale; forecast unchanged (use mode \"forecast\" to cut the forecast directly)"
		resp.Warnings = append(resp.Warnings, msg)
		s.log.Warn().Str("category", res.Category).Msg("reduction scaled no transactions")
	}
	writeJSON(w, http.StatusOK, resp)
}

// runSimulation decodes the kind-specific parameters from body and runs the
// matching simulation.
func runSimulation(kind model.SimulationKind, body []byte, txs []model.Transaction, months int, now time.Time) (model.SimulationResult, error) {
	switch kind {
	case model.KindExpense, model.KindIncome:
		var item model.RecurringItem
		if err := json.Unmarshal(body, &item); err != nil {
			return model.SimulationResult{}, err
		}
		if kind == model.KindIncome {
			return simulate.NewIncome(txs, item, months, now)
		}
		return simulate.NewExpense(txs, item, months, now)
	case model.KindReduction:
		var p model.ReductionParams
		if err := json.Unmarshal(body, &p); err != nil {
			return model.SimulationResult{}, err
		}
		return simulate.CategoryReduction(txs, p, months, now)
	case model.KindSavings:
		var p model.SavingsPlan
		if err := json.Unmarshal(body, &p); err != nil {
			return model.SimulationResult{}, err
		}
		return simulate.SavingsPlan(txs, p, months, now)
	}
	return model.SimulationResult{}, fmt.Errorf("%w %q", errUnknownKind, kind)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		took := time.Since(start)
		s.cfg.Metrics.RecordRequest(route, rec.code, took)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.code).
			Dur("took", took).
			Msg("request")
	})
}
