// Package daemon provides the long-running forecast service: a periodic
// re-forecast loop plus an HTTP API for forecasts, simulations and events.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/fincast/internal/forecast"
	"github.com/theirongolddev/fincast/internal/metrics"
	"github.com/theirongolddev/fincast/internal/model"
)

// Repository is the storage the daemon reads history from and writes
// predictions to. *store.Store satisfies it.
type Repository interface {
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error)
	UpsertPredictions(ctx context.Context, userID, accountID string, preds []model.Prediction) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	UserID         string
	AccountID      string
	Months         int
	SimulateMonths int
	Interval       time.Duration
	Addr           string
	EventsBuffer   int

	Repo     Repository
	Logger   *zerolog.Logger
	Metrics  metrics.Collector
	Gatherer prometheus.Gatherer // serves /metrics when set
	Now      func() time.Time
}

// Snapshot is the forecast state carried by status and event payloads.
type Snapshot struct {
	At             time.Time          `json:"at"`
	Transactions   int                `json:"transactions"`
	Categories     int                `json:"categories"`
	NextMonthTotal float64            `json:"next_month_total"`
	Predictions    []model.Prediction `json:"predictions"`
}

// Delta captures snapshot changes between polls.
type Delta struct {
	Transactions   int     `json:"transactions"`
	NextMonthTotal float64 `json:"next_month_total"`
}

// Event is emitted whenever the forecast changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventForecastDelta = "forecast_delta"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	UserID          string    `json:"user_id"`
	AccountID       string    `json:"account_id"`
	Months          int       `json:"months"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.AccountID == "" {
		cfg.AccountID = model.AllAccounts
	}
	if cfg.Months < 1 {
		cfg.Months = 3
	}
	if cfg.SimulateMonths < 1 {
		cfg.SimulateMonths = 12
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoOpCollector{}
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "daemon").Logger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		cfg:       cfg,
		log:       log,
		now:       now,
		startedAt: now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API wrapped in request logging.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/forecast", s.handleForecast)
	mux.HandleFunc("POST /v1/simulate/{kind}", s.handleSimulate)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	if s.cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttpHandler(s.cfg.Gatherer))
	}
	return s.logRequests(mux)
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Dur("interval", s.cfg.Interval).Msg("daemon started")

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("daemon stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce regenerates the baseline forecast, persists it, and publishes an
// event when the next month's total changed.
func (s *Service) pollOnce(ctx context.Context) {
	start := time.Now()
	now := s.now()

	txs, err := s.cfg.Repo.ListTransactions(ctx, model.TransactionFilter{
		UserID:    s.cfg.UserID,
		AccountID: s.cfg.AccountID,
	})
	if err == nil {
		preds := forecast.GeneratePredictions(txs, s.cfg.Months, now)
		s.cfg.Metrics.RecordForecast(len(forecast.Categories(txs)), time.Since(start))
		if err = s.cfg.Repo.UpsertPredictions(ctx, s.cfg.UserID, s.cfg.AccountID, preds); err == nil {
			s.applySnapshot(snapshotFrom(txs, preds, now))
		}
	}

	s.cfg.Metrics.RecordPoll(err == nil, time.Since(start))
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Error().Err(err).Str("user", s.cfg.UserID).Msg("poll failed")
		return
	}

	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	s.cfg.Metrics.RecordForecastTotal(s.cfg.AccountID, snap.NextMonthTotal)
	s.log.Debug().
		Str("user", s.cfg.UserID).
		Str("account", s.cfg.AccountID).
		Int("months", s.cfg.Months).
		Int("categories", snap.Categories).
		Float64("next_month_total", snap.NextMonthTotal).
		Dur("took", time.Since(start)).
		Msg("poll complete")
}

func (s *Service) applySnapshot(snap Snapshot) {
	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = snap.At
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: snap.At,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); delta.NextMonthTotal != 0 {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventForecastDelta,
			Timestamp: snap.At,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFrom(txs []model.Transaction, preds []model.Prediction, at time.Time) Snapshot {
	snap := Snapshot{
		At:           at,
		Transactions: len(txs),
		Categories:   len(forecast.Categories(txs)),
		Predictions:  preds,
	}
	if len(preds) > 0 {
		snap.NextMonthTotal = preds[0].Total
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	d := Delta{
		Transactions:   curr.Transactions - prev.Transactions,
		NextMonthTotal: curr.NextMonthTotal - prev.NextMonthTotal,
	}
	// Sub-cent float noise is not a change.
	if math.Abs(d.NextMonthTotal) < 0.005 {
		d.NextMonthTotal = 0
	}
	return d
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		UserID:          s.cfg.UserID,
		AccountID:       s.cfg.AccountID,
		Months:          s.cfg.Months,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
