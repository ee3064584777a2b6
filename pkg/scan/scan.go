// Package scan reduces dense 360° range sweeps into a small set of
// directional clearances used by the decision policy.
package scan

// Sweep is a single full-circle range scan at uniform angular resolution,
// counterclockwise from the robot's forward axis. RangeMax is the sensor's
// "no return" sentinel; samples at or above it are treated as clear.
type Sweep struct {
	Ranges   []float64
	RangeMax float64
}

// Clearances holds one minimum distance per sector. With the reference
// 12-sector layout the named indices below apply.
type Clearances []float64

// Sector indices for the reference layout: 12 bearings at 30° spacing,
// counterclockwise from the forward axis. Matches the TurtleBot3 convention.
const (
	Front = iota
	FrontLeft
	LeftFront
	Left
	LeftBack
	BackLeft
	Back
	BackRight
	RightBack
	Right
	RightFront
	FrontRight

	NumSectors = 12
)

var sectorNames = [NumSectors]string{
	"front", "front_left", "left_front", "left", "left_back", "back_left",
	"back", "back_right", "right_back", "right", "right_front", "front_right",
}

// SectorName returns the human-readable name of a reference-layout sector.
func SectorName(i int) string {
	if i < 0 || i >= NumSectors {
		return "unknown"
	}
	return sectorNames[i]
}
