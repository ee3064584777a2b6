// Package odom converts raw odometry orientation into planar pose values.
package odom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is an orientation in (x, y, z, w) component order, the order
// odometry messages carry it in.
type Quaternion struct {
	X, Y, Z, W float64
}

// RPY holds extrinsic roll, pitch and yaw in radians. The controller only
// steers on yaw; roll and pitch are extracted alongside it for telemetry.
type RPY struct {
	Roll, Pitch, Yaw float64
}

// Pose is a planar pose sample derived from one odometry update.
type Pose struct {
	X, Y float64
	Yaw  float64
}

// ToRPY extracts roll/pitch/yaw from the quaternion using the standard
// ZYX Euler decomposition. The quaternion is normalized first, so scaled
// or slightly drifted orientations are handled. A zero quaternion yields
// the identity orientation.
func (q Quaternion) ToRPY() RPY {
	n := quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
	a := quat.Abs(n)
	if a == 0 {
		return RPY{}
	}
	n = quat.Scale(1/a, n)

	w, x, y, z := n.Real, n.Imag, n.Jmag, n.Kmag

	// Clamp the pitch argument: rounding can push it just past ±1.
	sp := 2 * (w*y - z*x)
	if sp > 1 {
		sp = 1
	} else if sp < -1 {
		sp = -1
	}

	return RPY{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sp),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}

// Yaw is shorthand for the heading component of the orientation.
func (q Quaternion) Yaw() float64 {
	return q.ToRPY().Yaw
}
