package lap

import (
	"sync"
	"testing"
)

func TestTracker_LapPulse(t *testing.T) {
	tr := NewTracker(0.2)

	tr.Observe(0, 0) // records start
	if tr.State() != AwaitingDeparture {
		t.Fatalf("state after first sample: got %v", tr.State())
	}

	tr.Observe(1, 1) // well past threshold
	if tr.State() != Departed {
		t.Fatalf("state after departure: got %v", tr.State())
	}

	tr.Observe(0.05, 0.05) // back near start
	if !tr.TakePulse() {
		t.Fatal("expected near-start pulse on return")
	}
	if tr.Laps() != 1 {
		t.Errorf("laps: got %d, want 1", tr.Laps())
	}
}

func TestTracker_PulseIsOneShot(t *testing.T) {
	tr := NewTracker(0.2)
	tr.Observe(0, 0)
	tr.Observe(1, 1)
	tr.Observe(0, 0)

	if !tr.TakePulse() {
		t.Fatal("expected pulse")
	}
	if tr.TakePulse() {
		t.Fatal("pulse observed twice")
	}
}

func TestTracker_NoDepartureNoPulse(t *testing.T) {
	tr := NewTracker(0.2)
	tr.Observe(0, 0)
	tr.Observe(0.1, 0.05)
	tr.Observe(0.15, 0.1)
	tr.Observe(0, 0)

	if tr.TakePulse() {
		t.Fatal("pulse without ever departing")
	}
	if tr.State() != AwaitingDeparture {
		t.Errorf("state: got %v, want awaiting_departure", tr.State())
	}
}

func TestTracker_ChebyshevDistance(t *testing.T) {
	tr := NewTracker(0.2)
	tr.Observe(0, 0)

	// Neither component exceeds the threshold.
	tr.Observe(0.15, 0.19)
	if tr.State() != AwaitingDeparture {
		t.Fatalf("premature departure at (0.15, 0.19)")
	}

	// One component past the threshold is enough.
	tr.Observe(0.15, 0.21)
	if tr.State() != Departed {
		t.Fatalf("no departure at (0.15, 0.21)")
	}
}

func TestTracker_RearmsAtArrivalPoint(t *testing.T) {
	tr := NewTracker(0.2)
	tr.Observe(0, 0)
	tr.Observe(1, 1)
	tr.Observe(0.05, 0.05) // lap 1; new start = (0.05, 0.05)
	tr.TakePulse()

	// Departure is now measured from the arrival point.
	tr.Observe(0.3, 0.05)
	if tr.State() != Departed {
		t.Fatalf("no departure from re-armed start")
	}
	tr.Observe(0.1, 0.05)
	if !tr.TakePulse() {
		t.Fatal("expected second lap pulse")
	}
	if tr.Laps() != 2 {
		t.Errorf("laps: got %d, want 2", tr.Laps())
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker(0.2)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(off float64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Observe(off, off)
			}
		}(float64(i) * 0.1)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.TakePulse()
				tr.State()
			}
		}()
	}

	wg.Wait()
}
