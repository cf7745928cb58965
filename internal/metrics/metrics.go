// Package metrics records forecast, simulation and daemon activity.
package metrics

import "time"

// Collector receives engine and daemon measurements. Implementations export
// them to a backend such as Prometheus.
type Collector interface {
	// Engine
	RecordForecast(categories int, duration time.Duration)
	RecordSimulation(kind string, success bool, duration time.Duration)

	// Daemon
	RecordPoll(success bool, duration time.Duration)
	RecordForecastTotal(account string, total float64)
	RecordRequest(route string, status int, duration time.Duration)
}

// NoOpCollector discards everything. It is the default when metrics are off.
type NoOpCollector struct{}

func (NoOpCollector) RecordForecast(int, time.Duration)            {}
func (NoOpCollector) RecordSimulation(string, bool, time.Duration) {}
func (NoOpCollector) RecordPoll(bool, time.Duration)               {}
func (NoOpCollector) RecordForecastTotal(string, float64)          {}
func (NoOpCollector) RecordRequest(string, int, time.Duration)     {}
