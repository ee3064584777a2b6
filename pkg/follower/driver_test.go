package follower

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/pkg/odom"
	"github.com/ethanLin520/turtlebot3/pkg/scan"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// mockPublisher records all emitted commands.
type mockPublisher struct {
	mu    sync.Mutex
	calls []struct{ linear, angular float64 }
}

func (m *mockPublisher) EmitVelocity(linear, angular float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, struct{ linear, angular float64 }{linear, angular})
	return nil
}

func (m *mockPublisher) last() (linear, angular float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return 0, 0, false
	}
	c := m.calls[len(m.calls)-1]
	return c.linear, c.angular, true
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestDriver(t *testing.T, pub Publisher) *Driver {
	t.Helper()
	d, err := New(config.Default(), pub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

// straightRanges builds a sweep whose clearances select the straight rule:
// left_front shut down, front/front_left/front_right comfortably clear.
func straightRanges() []float64 {
	ranges := make([]float64, 360)
	for i := range ranges {
		ranges[i] = 2.0
	}
	for i := 50; i < 70; i++ { // left_front (60°)
		ranges[i] = 0.5
	}
	for i := 20; i < 40; i++ { // front_left (30°)
		ranges[i] = 0.7
	}
	for i := 320; i < 340; i++ { // front_right (330°)
		ranges[i] = 0.7
	}
	return ranges
}

func TestDriver_GatesUntilFirstScan(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDriver(t, pub)

	d.tick()
	d.tick()

	if pub.count() != 0 {
		t.Fatalf("emitted %d commands before any scan", pub.count())
	}
}

func TestDriver_StraightAtFullFactor(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDriver(t, pub)

	d.OnScan(straightRanges(), 3.5)
	d.tick()

	linear, angular, ok := pub.last()
	if !ok {
		t.Fatal("no command emitted")
	}
	if !floatEquals(linear, 0.3) || !floatEquals(angular, 0) {
		t.Errorf("command: got (%v, %v), want (0.3, 0)", linear, angular)
	}
}

func TestDriver_StalenessDecaysCommand(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDriver(t, pub)

	d.OnScan(straightRanges(), 3.5)
	d.tick() // fresh: factor 1.0
	d.tick() // one missed cycle: factor 0.8

	linear, angular, _ := pub.last()
	if !floatEquals(linear, 0.24) || !floatEquals(angular, 0) {
		t.Errorf("decayed command: got (%v, %v), want (0.24, 0)", linear, angular)
	}

	// A fresh scan restores full speed.
	d.OnScan(straightRanges(), 3.5)
	d.tick()
	linear, _, _ = pub.last()
	if !floatEquals(linear, 0.3) {
		t.Errorf("recovered command: got linear %v, want 0.3", linear)
	}
}

func TestDriver_NearStartStopsOnce(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDriver(t, pub)

	// Uniformly clear sweep selects left_front_open (0.2, 1.5).
	ranges := make([]float64, 360)
	for i := range ranges {
		ranges[i] = 2.0
	}
	d.OnScan(ranges, 3.5)

	d.OnPose(0, 0, odom.Quaternion{W: 1})
	d.OnPose(1, 1, odom.Quaternion{W: 1})
	d.OnPose(0.05, 0.05, odom.Quaternion{W: 1})

	d.tick()
	linear, angular, _ := pub.last()
	if linear != 0 || angular != 0 {
		t.Fatalf("near start: got (%v, %v), want (0, 0)", linear, angular)
	}

	// The pulse is consumed; the next tick steers again (decayed by one
	// missed cycle: 0.2*0.8, 1.5*0.8).
	d.tick()
	linear, angular, _ = pub.last()
	if !floatEquals(linear, 0.16) || !floatEquals(angular, 1.2) {
		t.Errorf("after pulse: got (%v, %v), want (0.16, 1.2)", linear, angular)
	}
}

func TestDriver_RejectedScanKeepsDecaying(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDriver(t, pub)

	d.OnScan(straightRanges(), 3.5)
	d.tick()

	// A malformed sweep must not reset staleness or disturb clearances.
	d.OnScan([]float64{1, 2, 3}, 3.5)
	d.tick()

	linear, _, _ := pub.last()
	if !floatEquals(linear, 0.24) {
		t.Errorf("command after rejected scan: got linear %v, want 0.24", linear)
	}

	snap := d.Snapshot()
	if !floatEquals(snap.Clearances[scan.LeftFront], 0.5) {
		t.Errorf("clearances disturbed by rejected scan: %v", snap.Clearances)
	}
}

func TestDriver_Snapshot(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDriver(t, pub)

	d.OnScan(straightRanges(), 3.5)
	d.OnPose(0.5, -0.25, odom.Quaternion{Z: math.Sin(0.5), W: math.Cos(0.5)})
	d.tick()

	snap := d.Snapshot()
	if !snap.HasScan {
		t.Error("snapshot missing scan flag")
	}
	if len(snap.Clearances) != scan.NumSectors {
		t.Errorf("snapshot clearances: got %d sectors", len(snap.Clearances))
	}
	if snap.LastRule != "straight" {
		t.Errorf("snapshot rule: got %q", snap.LastRule)
	}
	if !floatEquals(snap.Pose.X, 0.5) || !floatEquals(snap.Pose.Y, -0.25) {
		t.Errorf("snapshot pose: got %+v", snap.Pose)
	}
	if !floatEquals(snap.Pose.Yaw, 1.0) {
		t.Errorf("snapshot yaw: got %v, want 1.0", snap.Pose.Yaw)
	}
	if snap.Ticks != 1 {
		t.Errorf("snapshot ticks: got %d, want 1", snap.Ticks)
	}
}

func TestDriver_RunStop(t *testing.T) {
	pub := &mockPublisher{}
	cfg := config.Default()
	cfg.Control.TickInterval = 5 * time.Millisecond
	d, err := New(cfg, pub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	d.OnScan(straightRanges(), 3.5)

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	d.Stop()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("driver did not stop within timeout")
	}

	if pub.count() < 5 {
		t.Errorf("expected at least 5 commands, got %d", pub.count())
	}
}

func TestDriver_RejectsWrongSectorCount(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.Sectors = 8
	cfg.Scan.BeamHalfWidth = 10
	if _, err := New(cfg, &mockPublisher{}); err == nil {
		t.Fatal("expected error for non-reference sector count")
	}
}
