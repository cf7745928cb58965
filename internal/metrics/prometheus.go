package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector with client_golang vectors.
type PrometheusCollector struct {
	forecasts       prometheus.Counter
	forecastLatency prometheus.Histogram
	categories      prometheus.Gauge

	simulations       *prometheus.CounterVec
	simulationLatency *prometheus.HistogramVec

	polls         *prometheus.CounterVec
	pollLatency   prometheus.Histogram
	forecastTotal *prometheus.GaugeVec

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewPrometheusCollector creates a collector whose metric names are prefixed
// with namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		forecasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Total number of forecasts generated",
		}),
		forecastLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_duration_seconds",
			Help:      "Time spent generating a forecast",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		categories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_categories",
			Help:      "Number of categories in the most recent forecast",
		}),
		simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_total",
				Help:      "Total number of simulations per kind and status",
			},
			[]string{"kind", "status"},
		),
		simulationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "simulation_duration_seconds",
				Help:      "Time spent running a simulation per kind",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"kind"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "polls_total",
				Help:      "Total number of daemon re-forecast polls per status",
			},
			[]string{"status"},
		),
		pollLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent on one daemon poll including storage",
			Buckets:   prometheus.DefBuckets,
		}),
		forecastTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forecast_next_month_total",
				Help:      "Predicted expense total for next month per account scope",
			},
			[]string{"account"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests per route and status code",
			},
			[]string{"route", "code"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency per route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Register registers all metrics with the given registry.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.forecasts,
		pc.forecastLatency,
		pc.categories,
		pc.simulations,
		pc.simulationLatency,
		pc.polls,
		pc.pollLatency,
		pc.forecastTotal,
		pc.requests,
		pc.requestLatency,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordForecast records one forecast generation.
func (pc *PrometheusCollector) RecordForecast(categories int, duration time.Duration) {
	pc.forecasts.Inc()
	pc.categories.Set(float64(categories))
	pc.forecastLatency.Observe(duration.Seconds())
}

// RecordSimulation records one simulation run.
func (pc *PrometheusCollector) RecordSimulation(kind string, success bool, duration time.Duration) {
	pc.simulations.WithLabelValues(kind, status(success)).Inc()
	pc.simulationLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordPoll records one daemon poll.
func (pc *PrometheusCollector) RecordPoll(success bool, duration time.Duration) {
	pc.polls.WithLabelValues(status(success)).Inc()
	pc.pollLatency.Observe(duration.Seconds())
}

// RecordForecastTotal sets the latest next-month total for an account scope.
func (pc *PrometheusCollector) RecordForecastTotal(account string, total float64) {
	pc.forecastTotal.WithLabelValues(account).Set(total)
}

// RecordRequest records one HTTP request.
func (pc *PrometheusCollector) RecordRequest(route string, code int, duration time.Duration) {
	pc.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	pc.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
