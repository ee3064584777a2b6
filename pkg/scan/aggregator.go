package scan

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrShortSweep is returned when a sweep has too few samples for every
// sector's beam window to contain at least one reading.
var ErrShortSweep = errors.New("sweep too short for beam aggregation")

// Aggregator reduces a Sweep into per-sector clearances. For each bearing it
// takes the minimum reading inside a ±halfWidth beam, capped at RangeMax.
// Beam windows are indexed modulo the sweep length, so bearings near the
// 0°/360° boundary (the forward sector in the reference layout) aggregate
// across the wrap.
type Aggregator struct {
	sectors   int
	halfWidth int // degrees
}

// NewAggregator creates an aggregator for the given sector count and beam
// half-width in degrees. The reference layout is 12 sectors, ±10°.
func NewAggregator(sectors, halfWidthDeg int) *Aggregator {
	return &Aggregator{sectors: sectors, halfWidth: halfWidthDeg}
}

// Sectors returns the number of sectors produced per sweep.
func (a *Aggregator) Sectors() int { return a.sectors }

// Aggregate computes the clearance for every sector. The input sweep is not
// modified and not retained. Runs in O(len(ranges)).
//
// A reading below RangeMax inside a beam lowers that sector's clearance;
// NaN readings (lidar dropouts) are ignored. A beam with no usable reading
// reports RangeMax, treating "no return" as clear.
func (a *Aggregator) Aggregate(s Sweep) (Clearances, error) {
	n := len(s.Ranges)
	perBeam := 2 * a.halfWidth

	// Every beam window must cover at least one sample; otherwise indexing
	// the sweep by bearing is meaningless and the scan is rejected.
	if n*perBeam < 360 {
		return nil, fmt.Errorf("%w: %d samples, need at least %d for ±%d° beams",
			ErrShortSweep, n, (360+perBeam-1)/perBeam, a.halfWidth)
	}

	step := float64(n) / 360.0 // samples per degree
	spacing := 360 / a.sectors

	out := make(Clearances, a.sectors)
	window := make([]float64, 0, int(math.Ceil(float64(perBeam)*step))+1)

	for i := 0; i < a.sectors; i++ {
		bearing := i * spacing
		lo := int(math.Round(float64(bearing-a.halfWidth) * step))
		hi := int(math.Round(float64(bearing+a.halfWidth) * step))

		window = window[:0]
		for j := lo; j < hi; j++ {
			v := s.Ranges[((j%n)+n)%n]
			if math.IsNaN(v) {
				continue
			}
			window = append(window, v)
		}

		c := s.RangeMax
		if len(window) > 0 {
			if m := floats.Min(window); m < c {
				c = m
			}
		}
		out[i] = c
	}

	return out, nil
}
