// Package lap detects lap completion from integrated pose. A tracker records
// the start position, waits for the robot to leave its vicinity, and raises
// a one-shot pulse when it returns. The departure requirement is the
// hysteresis that stops the very first pose samples from reading as an
// instant "return to start".
package lap

import (
	"math"
	"sync"

	"github.com/ethanLin520/turtlebot3/internal/log"
)

// State is the tracker's position in its cycle. Transitions are strictly
// AwaitingDeparture → Departed → Arrived → AwaitingDeparture; Arrived is
// transient and re-arms within the same observation.
type State int

const (
	AwaitingDeparture State = iota
	Departed
	Arrived
)

func (s State) String() string {
	switch s {
	case AwaitingDeparture:
		return "awaiting_departure"
	case Departed:
		return "departed"
	case Arrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Tracker consumes pose samples and reports near-start pulses. Safe for
// concurrent use: Observe is called from the odometry stream while TakePulse
// is called from the control tick.
type Tracker struct {
	mu sync.Mutex

	threshold float64
	started   bool
	state     State
	startX    float64
	startY    float64

	pulse bool
	laps  uint64
}

// NewTracker creates a tracker with the given departure/return threshold.
func NewTracker(threshold float64) *Tracker {
	return &Tracker{threshold: threshold}
}

// Observe feeds one pose sample through the state machine.
//
// The first sample records the start point. While awaiting departure, the
// Chebyshev distance (max of |Δx|, |Δy|) must exceed the threshold before
// the tracker arms; once departed, falling back under it raises the pulse
// and re-arms with the arrival point as the next lap's start.
func (t *Tracker) Observe(x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		t.startX, t.startY = x, y
		t.started = true
		t.state = AwaitingDeparture
		return
	}

	d := math.Max(math.Abs(x-t.startX), math.Abs(y-t.startY))

	switch t.state {
	case AwaitingDeparture:
		if d > t.threshold {
			t.state = Departed
			log.Debug("departed start vicinity", "x", x, "y", y, "distance", d)
		}
	case Departed:
		if d < t.threshold {
			// Arrival: pulse once, then the arrival point becomes the new
			// start and tracking begins again without a pause.
			t.state = Arrived
			t.pulse = true
			t.laps++
			log.Info("near start", "x", x, "y", y, "lap", t.laps)

			t.startX, t.startY = x, y
			t.state = AwaitingDeparture
		}
	}
}

// TakePulse returns whether a near-start pulse is pending and clears it, so
// a pulse is observed by at most one decision cycle.
func (t *Tracker) TakePulse() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.pulse
	t.pulse = false
	return p
}

// State returns the current cycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Laps returns how many times the robot has returned to a start point.
func (t *Tracker) Laps() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.laps
}
