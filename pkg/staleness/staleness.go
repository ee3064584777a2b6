// Package staleness decays commanded velocity when sensor data stops
// arriving. Rather than freezing or hard-stopping on a dropout, the
// modulator shrinks the command geometrically every missed refresh cycle,
// so the robot decelerates smoothly to near-zero within a handful of ticks.
package staleness

import (
	"math"
	"sync"
)

// Modulator tracks control ticks since the last fresh scan and produces the
// multiplicative decay factor base^n. Safe for concurrent use: NotifyFresh
// is called from the scan stream while Tick runs on the control loop.
type Modulator struct {
	mu      sync.Mutex
	base    float64
	counter int
	fresh   bool // a fresh scan arrived since the last tick
}

// New creates a modulator with the given decay base, which must be in (0,1).
func New(base float64) *Modulator {
	return &Modulator{base: base}
}

// NotifyFresh records that new clearances were produced. The counter resets
// on the next tick.
func (m *Modulator) NotifyFresh() {
	m.mu.Lock()
	m.fresh = true
	m.mu.Unlock()
}

// Tick advances one control period and returns the decay factor. Ticks
// immediately following a fresh scan reset the counter to zero (factor 1.0);
// every other tick increments it.
func (m *Modulator) Tick() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fresh {
		m.fresh = false
		m.counter = 0
	} else {
		m.counter++
	}

	return math.Pow(m.base, float64(m.counter))
}

// Counter returns the number of ticks since the last fresh scan.
func (m *Modulator) Counter() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}
