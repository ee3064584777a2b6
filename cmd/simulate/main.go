// Command simulate runs a closed-loop stand-in for the robot: it raycasts a
// rectangular room into 360° range sweeps, integrates velocity commands from
// the bus into odometry, and publishes both so the follower can be exercised
// end to end without hardware.
package main

import (
	"flag"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/internal/log"
	"github.com/ethanLin520/turtlebot3/pkg/bus"
	"github.com/ethanLin520/turtlebot3/pkg/odom"
)

const (
	physicsStep = 20 * time.Millisecond
	scanPeriod  = 200 * time.Millisecond
	odomPeriod  = 50 * time.Millisecond
)

// robot is the simulated robot state inside an axis-aligned room.
type robot struct {
	mu      sync.Mutex
	x, y    float64
	yaw     float64
	linear  float64
	angular float64
}

// setCommand stores the latest velocity command from the controller.
func (r *robot) setCommand(linear, angular float64) {
	r.mu.Lock()
	r.linear = linear
	r.angular = angular
	r.mu.Unlock()
}

// step integrates motion over dt, keeping the robot inside the room.
func (r *robot) step(dt, roomW, roomH float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.yaw += r.angular * dt
	r.x += r.linear * math.Cos(r.yaw) * dt
	r.y += r.linear * math.Sin(r.yaw) * dt

	const margin = 0.12 // robot radius
	r.x = math.Min(math.Max(r.x, margin), roomW-margin)
	r.y = math.Min(math.Max(r.y, margin), roomH-margin)
}

// pose returns the current pose.
func (r *robot) pose() (x, y, yaw float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y, r.yaw
}

// raycast returns the distance from (x, y) to the room boundary along the
// world-frame direction theta.
func raycast(x, y, theta, roomW, roomH float64) float64 {
	dx := math.Cos(theta)
	dy := math.Sin(theta)

	tx := math.Inf(1)
	if dx > 1e-9 {
		tx = (roomW - x) / dx
	} else if dx < -1e-9 {
		tx = -x / dx
	}

	ty := math.Inf(1)
	if dy > 1e-9 {
		ty = (roomH - y) / dy
	} else if dy < -1e-9 {
		ty = -y / dy
	}

	return math.Min(tx, ty)
}

// sweep casts one full-circle scan in the robot frame.
func sweep(r *robot, roomW, roomH, rangeMax, noise float64, rng *rand.Rand) []float64 {
	x, y, yaw := r.pose()

	ranges := make([]float64, 360)
	for i := range ranges {
		theta := yaw + float64(i)*math.Pi/180
		d := raycast(x, y, theta, roomW, roomH)
		if noise > 0 {
			d += rng.NormFloat64() * noise
		}
		if d < 0 {
			d = 0
		}
		if d > rangeMax {
			d = rangeMax
		}
		ranges[i] = d
	}
	return ranges
}

func main() {
	natsURL := flag.String("nats", "nats://127.0.0.1:4222", "NATS URL")
	roomW := flag.Float64("room-width", 3.0, "Room width in metres")
	roomH := flag.Float64("room-height", 2.0, "Room height in metres")
	startX := flag.Float64("x", 0.5, "Start x position")
	startY := flag.Float64("y", 0.5, "Start y position")
	rangeMax := flag.Float64("range-max", 3.5, "Sensor maximum range")
	noise := flag.Float64("noise", 0.005, "Gaussian range noise stddev")
	seed := flag.Int64("seed", 1, "Noise RNG seed")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	cfg := config.Default()
	cfg.Bus.URL = *natsURL

	conn, err := bus.Connect(cfg.Bus)
	if err != nil {
		log.Error("failed to connect to bus", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	r := &robot{x: *startX, y: *startY}
	rng := rand.New(rand.NewSource(*seed))

	// Close the loop: the follower's commands drive the simulated robot.
	if err := conn.SubscribeCmd(r.setCommand); err != nil {
		log.Error("failed to subscribe to commands", "error", err)
		os.Exit(1)
	}

	stop := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		close(stop)
	}()

	log.Info("simulator running",
		"room", [2]float64{*roomW, *roomH},
		"start", [2]float64{*startX, *startY},
		"bus", cfg.Bus.URL)

	physics := time.NewTicker(physicsStep)
	scans := time.NewTicker(scanPeriod)
	odoms := time.NewTicker(odomPeriod)
	defer physics.Stop()
	defer scans.Stop()
	defer odoms.Stop()

	for {
		select {
		case <-stop:
			log.Info("simulator stopped")
			return

		case <-physics.C:
			r.step(physicsStep.Seconds(), *roomW, *roomH)

		case <-scans.C:
			ranges := sweep(r, *roomW, *roomH, *rangeMax, *noise, rng)
			if err := conn.PublishScan(ranges, *rangeMax); err != nil {
				log.Warn("failed to publish scan", "error", err)
			}

		case <-odoms.C:
			x, y, yaw := r.pose()
			q := odom.Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
			if err := conn.PublishOdom(x, y, q); err != nil {
				log.Warn("failed to publish odom", "error", err)
			}
		}
	}
}
