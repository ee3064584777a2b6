// Package bus carries sensor and command messages over NATS. Subjects and
// payloads mirror the robot's topics: range sweeps and odometry in, velocity
// commands out.
package bus

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScanData is one full-circle range sweep.
type ScanData struct {
	Ranges    []float64 `json:"ranges"`
	RangeMax  float64   `json:"range_max"`
	Timestamp int64     `json:"ts,omitempty"` // Unix milliseconds
}

// OdomData is one odometry sample: planar position plus the full
// orientation quaternion in (x, y, z, w) order.
type OdomData struct {
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Orientation [4]float64 `json:"orientation"`
	Timestamp   int64      `json:"ts,omitempty"`
}

// TwistData is one velocity command.
type TwistData struct {
	Linear    float64 `json:"linear"`
	Angular   float64 `json:"angular"`
	Timestamp int64   `json:"ts,omitempty"`
}

func now() int64 {
	return time.Now().UnixMilli()
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}
