package follower

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the control loop.
type Metrics struct {
	TicksTotal    prometheus.Counter
	TicksSkipped  prometheus.Counter
	StaleTicks    prometheus.Counter
	ScansTotal    prometheus.Counter
	ScansRejected prometheus.Counter
	CommandsTotal *prometheus.CounterVec
	DecayFactor   prometheus.Gauge
	Laps          prometheus.Gauge
}

// NewMetrics creates and registers the control-loop metrics. Registration
// happens once per process; subsequent calls return the same set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "follower_ticks_total",
				Help: "Control ticks that produced a velocity command",
			}),
			TicksSkipped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "follower_ticks_skipped_total",
				Help: "Control ticks skipped because no scan has arrived yet",
			}),
			StaleTicks: promauto.NewCounter(prometheus.CounterOpts{
				Name: "follower_stale_ticks_total",
				Help: "Control ticks that ran without a fresh scan",
			}),
			ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "follower_scans_total",
				Help: "Range sweeps aggregated into sector clearances",
			}),
			ScansRejected: promauto.NewCounter(prometheus.CounterOpts{
				Name: "follower_scans_rejected_total",
				Help: "Range sweeps rejected as malformed",
			}),
			CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "follower_commands_total",
				Help: "Velocity commands emitted, by matched rule",
			}, []string{"rule"}),
			DecayFactor: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "follower_decay_factor",
				Help: "Staleness decay factor applied to the last command",
			}),
			Laps: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "follower_laps_total",
				Help: "Completed laps detected by the start-proximity tracker",
			}),
		}
	})
	return globalMetrics
}
