package odom

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestToRPY_Identity(t *testing.T) {
	rpy := Quaternion{W: 1}.ToRPY()
	if !floatEquals(rpy.Roll, 0) || !floatEquals(rpy.Pitch, 0) || !floatEquals(rpy.Yaw, 0) {
		t.Errorf("identity: got %+v, want zeros", rpy)
	}
}

func TestToRPY_PureYaw(t *testing.T) {
	for _, yaw := range []float64{math.Pi / 2, -math.Pi / 2, math.Pi / 4, 1.0} {
		q := Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
		rpy := q.ToRPY()
		if !floatEquals(rpy.Yaw, yaw) {
			t.Errorf("yaw %v: got %v", yaw, rpy.Yaw)
		}
		if !floatEquals(rpy.Roll, 0) || !floatEquals(rpy.Pitch, 0) {
			t.Errorf("yaw %v: roll/pitch not zero: %+v", yaw, rpy)
		}
	}
}

func TestToRPY_PureRoll(t *testing.T) {
	roll := math.Pi / 3
	q := Quaternion{X: math.Sin(roll / 2), W: math.Cos(roll / 2)}
	rpy := q.ToRPY()
	if !floatEquals(rpy.Roll, roll) {
		t.Errorf("roll: got %v, want %v", rpy.Roll, roll)
	}
}

func TestToRPY_NormalizesInput(t *testing.T) {
	yaw := math.Pi / 2
	q := Quaternion{Z: 2 * math.Sin(yaw/2), W: 2 * math.Cos(yaw/2)}
	if got := q.Yaw(); !floatEquals(got, yaw) {
		t.Errorf("unnormalized quaternion: yaw got %v, want %v", got, yaw)
	}
}

func TestToRPY_ZeroQuaternion(t *testing.T) {
	rpy := Quaternion{}.ToRPY()
	if rpy != (RPY{}) {
		t.Errorf("zero quaternion: got %+v, want identity", rpy)
	}
}
