package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theirongolddev/fincast/internal/metrics"
	"github.com/theirongolddev/fincast/internal/model"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu      sync.Mutex
	txs     []model.Transaction
	upserts map[string][]model.Prediction
	listErr error
}

func (m *memRepo) ListTransactions(_ context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Transaction
	for _, t := range m.txs {
		if f.AccountID != "" && f.AccountID != model.AllAccounts && t.AccountID != f.AccountID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memRepo) UpsertPredictions(_ context.Context, userID, accountID string, preds []model.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upserts == nil {
		m.upserts = make(map[string][]model.Prediction)
	}
	m.upserts[userID+"/"+accountID] = preds
	return nil
}

// rentHistory is three months of 1000 rent on account "chk" ending last month.
func rentHistory() []model.Transaction {
	var txs []model.Transaction
	for _, m := range []time.Month{time.July, time.August, time.September} {
		txs = append(txs, model.Transaction{
			Type:      model.Expense,
			Amount:    1000,
			Category:  "rent",
			AccountID: "chk",
			Date:      time.Date(2026, m, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return txs
}

func newTestService(repo *memRepo) *Service {
	return New(Config{
		UserID:   "u1",
		Months:   3,
		Interval: 10 * time.Second,
		Repo:     repo,
		Now:      func() time.Time { return testNow },
	})
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Transactions: 10, NextMonthTotal: 1000}
	curr := Snapshot{Transactions: 12, NextMonthTotal: 1250.5}

	delta := diffSnapshots(prev, curr)
	if delta.Transactions != 2 {
		t.Fatalf("Transactions delta = %d, want 2", delta.Transactions)
	}
	if math.Abs(delta.NextMonthTotal-250.5) > 1e-9 {
		t.Fatalf("NextMonthTotal delta = %.2f, want 250.50", delta.NextMonthTotal)
	}

	noise := diffSnapshots(Snapshot{NextMonthTotal: 0.1 + 0.2}, Snapshot{NextMonthTotal: 0.3})
	if noise.NextMonthTotal != 0 {
		t.Fatalf("sub-cent delta = %v, want 0", noise.NextMonthTotal)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Repo:         &memRepo{},
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_EventsAndUpsert(t *testing.T) {
	repo := &memRepo{txs: rentHistory()}
	s := newTestService(repo)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged forecast: no new event

	s.mu.RLock()
	if len(s.events) != 1 || s.events[0].Type != EventSnapshot {
		t.Fatalf("events after two identical polls = %+v, want one snapshot", s.events)
	}
	if s.snapshot.NextMonthTotal <= 0 || s.pollCount != 2 {
		t.Fatalf("snapshot = %+v, pollCount = %d", s.snapshot, s.pollCount)
	}
	first := s.snapshot.NextMonthTotal
	s.mu.RUnlock()

	if got := repo.upserts["u1/all"]; len(got) != 3 {
		t.Fatalf("upserted %d predictions, want 3", len(got))
	}

	repo.mu.Lock()
	repo.txs = append(repo.txs, model.Transaction{
		Type: model.Expense, Amount: 600, Category: "travel", AccountID: "chk",
		Date: time.Date(2026, time.October, 2, 0, 0, 0, 0, time.UTC),
	})
	repo.mu.Unlock()
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != EventForecastDelta || ev.ID != 2 {
		t.Fatalf("second event = %s #%d, want forecast_delta #2", ev.Type, ev.ID)
	}
	if ev.Delta.NextMonthTotal <= 0 || ev.Delta.Transactions != 1 {
		t.Errorf("delta = %+v, want positive total change and one new transaction", ev.Delta)
	}
	if math.Abs(ev.Snapshot.NextMonthTotal-first-ev.Delta.NextMonthTotal) > 1e-9 {
		t.Errorf("delta %.2f does not match snapshot change", ev.Delta.NextMonthTotal)
	}
}

func TestPollOnce_ErrorRecorded(t *testing.T) {
	repo := &memRepo{listErr: errors.New("disk gone")}
	s := newTestService(repo)
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError != "disk gone" || st.PollCount != 1 || st.EventCount != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestHandleForecast(t *testing.T) {
	s := newTestService(&memRepo{txs: rentHistory()})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/forecast?months=2&account=chk", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp ForecastResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Months != 2 || len(resp.Predictions) != 2 || resp.AccountID != "chk" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Predictions[0].Label() != "Nov 2026" {
		t.Errorf("first label = %s, want Nov 2026", resp.Predictions[0].Label())
	}
	if got := resp.Predictions[0].Categories["rent"].Amount; math.Abs(got-1000) > 1e-9 {
		t.Errorf("rent = %v, want 1000", got)
	}

	for _, q := range []string{"months=0", "months=abc", "months=61"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/forecast?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHandleSimulate(t *testing.T) {
	s := newTestService(&memRepo{txs: rentHistory()})
	h := s.Handler()

	post := func(kind, body string) *httptest.ResponseRecorder {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/simulate/"+kind, strings.NewReader(body)))
		return rec
	}

	rec := post("expense", `{"amount":50,"category":"gym","months":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expense status = %d: %s", rec.Code, rec.Body)
	}
	var resp SimulateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Result.SimulatedPredictions) != 4 {
		t.Fatalf("simulated months = %d, want 4", len(resp.Result.SimulatedPredictions))
	}
	for i, d := range resp.Result.MonthlyDeltas() {
		if d != 50 {
			t.Errorf("month %d delta = %v, want 50", i, d)
		}
	}
	if resp.Result.DirectImpact == nil || resp.Result.DirectImpact.TotalImpact != 200 {
		t.Errorf("direct impact = %+v, want total 200", resp.Result.DirectImpact)
	}

	rec = post("reduction", `{"category":"rent","reductionPercentage":20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reduction status = %d: %s", rec.Code, rec.Body)
	}
	resp = SimulateResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("warnings = %v, want a no-op warning", resp.Warnings)
	}

	bad := []struct {
		kind, body string
		code       int
	}{
		{"expense", `{"category":"gym"}`, http.StatusBadRequest},
		{"expense", `{"amount":-5,"category":"gym"}`, http.StatusBadRequest},
		{"savings", `{"initialAmount":100}`, http.StatusBadRequest},
		{"reduction", `{"category":"rent","reductionPercentage":150}`, http.StatusBadRequest},
		{"expense", `{"amount":"fifty","category":"gym"}`, http.StatusBadRequest},
		{"expense", `not json`, http.StatusBadRequest},
		{"expense", `{"amount":5,"category":"gym","months":601}`, http.StatusBadRequest},
		{"lottery", `{}`, http.StatusNotFound},
	}
	for _, tt := range bad {
		rec := post(tt.kind, tt.body)
		if rec.Code != tt.code {
			t.Errorf("%s %s: status = %d, want %d", tt.kind, tt.body, rec.Code, tt.code)
			continue
		}
		var e map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&e); err != nil || e["error"] == "" {
			t.Errorf("%s %s: body lacks error field", tt.kind, tt.body)
		}
	}
}

func TestStatusEventsAndMetrics(t *testing.T) {
	pc := metrics.NewPrometheusCollector("fincast")
	reg := prometheus.NewRegistry()
	if err := pc.Register(reg); err != nil {
		t.Fatal(err)
	}

	s := New(Config{
		UserID:   "u1",
		Repo:     &memRepo{txs: rentHistory()},
		Metrics:  pc,
		Gatherer: reg,
		Now:      func() time.Time { return testNow },
	})
	s.pollOnce(context.Background())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.UserID != "u1" || st.AccountID != model.AllAccounts || st.PollCount != 1 || st.Summary.Categories != 1 {
		t.Errorf("status = %+v", st)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	var events []Event
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != EventSnapshot {
		t.Errorf("events = %+v", events)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"fincast_polls_total", "fincast_forecast_next_month_total", `fincast_http_requests_total{code="200",route="GET /v1/status"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestWriteSSE(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSSE(rec, Event{ID: 7, Type: EventForecastDelta})
	out := rec.Body.String()
	if !strings.HasPrefix(out, "event: forecast_delta\ndata: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("sse frame = %q", out)
	}
}
