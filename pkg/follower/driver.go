// Package follower runs the wall-following control loop. A Driver caches
// the latest sector clearances and lap state as sensor messages arrive,
// then on a fixed period fuses them through the rule ladder, applies the
// staleness decay and emits one velocity command.
package follower

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/internal/log"
	"github.com/ethanLin520/turtlebot3/pkg/lap"
	"github.com/ethanLin520/turtlebot3/pkg/odom"
	"github.com/ethanLin520/turtlebot3/pkg/policy"
	"github.com/ethanLin520/turtlebot3/pkg/scan"
	"github.com/ethanLin520/turtlebot3/pkg/staleness"
)

// Publisher delivers velocity commands to the transport.
type Publisher interface {
	EmitVelocity(linear, angular float64) error
}

// Snapshot is one tick's worth of controller state for telemetry.
type Snapshot struct {
	Clearances  []float64      `json:"clearances"`
	HasScan     bool           `json:"has_scan"`
	StaleTicks  int            `json:"stale_ticks"`
	Factor      float64        `json:"factor"`
	LapState    string         `json:"lap_state"`
	Laps        uint64         `json:"laps"`
	Pose        odom.Pose      `json:"pose"`
	LastRule    string         `json:"last_rule"`
	LastCommand policy.Command `json:"last_command"`
	Ticks       uint64         `json:"ticks"`
}

// Driver is the control loop. Scan and pose delivery run concurrently with
// the tick; every cached field is guarded so a tick always observes a
// fully-written snapshot.
type Driver struct {
	pub      Publisher
	agg      *scan.Aggregator
	tracker  *lap.Tracker
	mod      *staleness.Modulator
	ladder   *policy.Ladder
	interval time.Duration

	mu         sync.RWMutex
	clearances scan.Clearances
	hasScan    bool
	pose       odom.Pose
	lastCmd    policy.Command
	lastRule   string
	lastFactor float64
	tickCount  uint64

	stop    chan struct{}
	metrics *Metrics

	// OnTick, when set before Run, receives a snapshot after every
	// completed tick. Used by the telemetry dashboard.
	OnTick func(Snapshot)
}

// New creates a driver wired to the given command publisher.
func New(cfg *config.Config, pub Publisher) (*Driver, error) {
	// The ladder addresses clearances by the reference sector names.
	if cfg.Scan.Sectors != scan.NumSectors {
		return nil, fmt.Errorf("decision ladder requires %d sectors, configured %d",
			scan.NumSectors, cfg.Scan.Sectors)
	}

	return &Driver{
		pub:      pub,
		agg:      scan.NewAggregator(cfg.Scan.Sectors, cfg.Scan.BeamHalfWidth),
		tracker:  lap.NewTracker(cfg.Lap.StartRange),
		mod:      staleness.New(cfg.Control.BaseFactor),
		ladder:   policy.NewLadder(cfg.Policy),
		interval: cfg.Control.TickInterval,
		stop:     make(chan struct{}),
		metrics:  NewMetrics(),
	}, nil
}

// OnScan consumes one range sweep. Safe to call from any goroutine.
//
// A malformed sweep is rejected: the previous clearances stay in place and
// the staleness counter keeps accruing, since no usable data arrived.
func (d *Driver) OnScan(ranges []float64, rangeMax float64) {
	clearances, err := d.agg.Aggregate(scan.Sweep{Ranges: ranges, RangeMax: rangeMax})
	if err != nil {
		d.metrics.ScansRejected.Inc()
		log.Warn("rejected scan", "error", err)
		return
	}

	d.mu.Lock()
	d.clearances = clearances
	d.hasScan = true
	d.mu.Unlock()

	d.mod.NotifyFresh()
	d.metrics.ScansTotal.Inc()
	log.Debug("scan aggregated", "front", clearances[scan.Front])
}

// OnPose consumes one odometry sample. Safe to call from any goroutine.
func (d *Driver) OnPose(x, y float64, q odom.Quaternion) {
	rpy := q.ToRPY()

	d.mu.Lock()
	d.pose = odom.Pose{X: x, Y: y, Yaw: rpy.Yaw}
	d.mu.Unlock()

	d.tracker.Observe(x, y)
	log.Debug("pose", "x", x, "y", y, "yaw", rpy.Yaw)
}

// Run starts the control loop. Blocks until Stop is called.
func (d *Driver) Run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

// Stop halts the control loop.
func (d *Driver) Stop() {
	close(d.stop)
}

// tick runs one control cycle: decay factor, rule ladder, scaled command.
// Emits nothing until the first scan has been aggregated, so the policy
// never acts on zero-initialized clearances.
func (d *Driver) tick() {
	d.mu.RLock()
	hasScan := d.hasScan
	clearances := d.clearances
	d.mu.RUnlock()

	if !hasScan {
		d.metrics.TicksSkipped.Inc()
		return
	}

	factor := d.mod.Tick()
	if stale := d.mod.Counter(); stale > 0 {
		d.metrics.StaleTicks.Inc()
	}

	in := policy.Input{
		Clearances: clearances,
		NearStart:  d.tracker.TakePulse(),
	}
	cmd, rule := d.ladder.Decide(in)
	scaled := cmd.Scale(factor)

	if err := d.pub.EmitVelocity(scaled.Linear, scaled.Angular); err != nil {
		log.Error("failed to emit velocity", "error", err)
	}

	d.mu.Lock()
	d.lastCmd = scaled
	d.lastRule = rule
	d.lastFactor = factor
	d.tickCount++
	ticks := d.tickCount
	d.mu.Unlock()

	d.metrics.TicksTotal.Inc()
	d.metrics.CommandsTotal.WithLabelValues(rule).Inc()
	d.metrics.DecayFactor.Set(factor)
	d.metrics.Laps.Set(float64(d.tracker.Laps()))

	log.Debug("tick", "rule", rule, "linear", scaled.Linear, "angular", scaled.Angular, "factor", factor)
	if ticks%100 == 0 {
		log.Info("control loop", "ticks", ticks, "rule", rule, "laps", d.tracker.Laps())
	}

	if d.OnTick != nil {
		d.OnTick(d.Snapshot())
	}
}

// Rules returns the rule ladder names in evaluation order.
func (d *Driver) Rules() []string {
	return d.ladder.Rules()
}

// Snapshot returns the current controller state for telemetry.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	clearances := make([]float64, len(d.clearances))
	copy(clearances, d.clearances)

	return Snapshot{
		Clearances:  clearances,
		HasScan:     d.hasScan,
		StaleTicks:  d.mod.Counter(),
		Factor:      d.lastFactor,
		LapState:    d.tracker.State().String(),
		Laps:        d.tracker.Laps(),
		Pose:        d.pose,
		LastRule:    d.lastRule,
		LastCommand: d.lastCmd,
		Ticks:       d.tickCount,
	}
}
