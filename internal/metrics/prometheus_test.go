package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Collector = NoOpCollector{}
	_ Collector = (*PrometheusCollector)(nil)
)

// gathered returns the value of the first sample of each metric family,
// keyed by family name.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			out[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			out[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			out[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}
	return out
}

func TestPrometheusCollector(t *testing.T) {
	pc := NewPrometheusCollector("fincast")
	reg := prometheus.NewRegistry()
	if err := pc.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	pc.RecordForecast(4, 2*time.Millisecond)
	pc.RecordForecast(5, time.Millisecond)
	pc.RecordSimulation("expense", true, time.Millisecond)
	pc.RecordPoll(false, 10*time.Millisecond)
	pc.RecordForecastTotal("all", 1234.5)
	pc.RecordRequest("/v1/forecast", 200, time.Millisecond)

	got := gathered(t, reg)
	want := map[string]float64{
		"fincast_forecasts_total":               2,
		"fincast_forecast_categories":           5,
		"fincast_forecast_duration_seconds":     2,
		"fincast_simulations_total":             1,
		"fincast_simulation_duration_seconds":   1,
		"fincast_polls_total":                   1,
		"fincast_poll_duration_seconds":         1,
		"fincast_forecast_next_month_total":     1234.5,
		"fincast_http_requests_total":           1,
		"fincast_http_request_duration_seconds": 1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := NewPrometheusCollector("x").Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := NewPrometheusCollector("x").Register(reg); err == nil {
		t.Error("second Register succeeded, want duplicate error")
	}
}
