package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/internal/log"
	"github.com/ethanLin520/turtlebot3/pkg/odom"
)

// Conn is a connection to the robot's message bus. One Conn serves both
// directions: sensor subscriptions in, velocity commands out.
type Conn struct {
	nc   *nats.Conn
	cfg  config.BusConfig
	subs []*nats.Subscription
}

// Connect opens a bus connection. Reconnects are retried in the background
// so a broker restart does not kill the controller.
func Connect(cfg config.BusConfig) (*Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("wall-follower-"+uuid.NewString()[:8]),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	log.Info("connected to bus", "url", cfg.URL)
	return &Conn{nc: nc, cfg: cfg}, nil
}

// SubscribeScan delivers each incoming range sweep to handler. Handlers run
// on the subscription's goroutine, concurrently with the control tick.
func (c *Conn) SubscribeScan(handler func(ranges []float64, rangeMax float64)) error {
	sub, err := c.nc.Subscribe(c.cfg.ScanSubject, func(m *nats.Msg) {
		var data ScanData
		if err := json.Unmarshal(m.Data, &data); err != nil {
			log.Warn("dropped malformed scan message", "error", err)
			return
		}
		handler(data.Ranges, data.RangeMax)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.ScanSubject, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

// SubscribeOdom delivers each incoming odometry sample to handler.
func (c *Conn) SubscribeOdom(handler func(x, y float64, q odom.Quaternion)) error {
	sub, err := c.nc.Subscribe(c.cfg.OdomSubject, func(m *nats.Msg) {
		var data OdomData
		if err := json.Unmarshal(m.Data, &data); err != nil {
			log.Warn("dropped malformed odom message", "error", err)
			return
		}
		o := data.Orientation
		handler(data.X, data.Y, odom.Quaternion{X: o[0], Y: o[1], Z: o[2], W: o[3]})
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.OdomSubject, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

// SubscribeCmd delivers each velocity command to handler. Used by the
// simulator to close the control loop.
func (c *Conn) SubscribeCmd(handler func(linear, angular float64)) error {
	sub, err := c.nc.Subscribe(c.cfg.CmdSubject, func(m *nats.Msg) {
		var data TwistData
		if err := json.Unmarshal(m.Data, &data); err != nil {
			log.Warn("dropped malformed command message", "error", err)
			return
		}
		handler(data.Linear, data.Angular)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.CmdSubject, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

// EmitVelocity publishes one velocity command. Implements follower.Publisher.
func (c *Conn) EmitVelocity(linear, angular float64) error {
	data, err := marshal(TwistData{Linear: linear, Angular: angular, Timestamp: now()})
	if err != nil {
		return err
	}
	return c.nc.Publish(c.cfg.CmdSubject, data)
}

// PublishScan publishes one range sweep. Used by the simulator.
func (c *Conn) PublishScan(ranges []float64, rangeMax float64) error {
	data, err := marshal(ScanData{Ranges: ranges, RangeMax: rangeMax, Timestamp: now()})
	if err != nil {
		return err
	}
	return c.nc.Publish(c.cfg.ScanSubject, data)
}

// PublishOdom publishes one odometry sample. Used by the simulator.
func (c *Conn) PublishOdom(x, y float64, q odom.Quaternion) error {
	data, err := marshal(OdomData{X: x, Y: y, Orientation: [4]float64{q.X, q.Y, q.Z, q.W}, Timestamp: now()})
	if err != nil {
		return err
	}
	return c.nc.Publish(c.cfg.OdomSubject, data)
}

// Flush waits until all published messages have been processed by the broker.
func (c *Conn) Flush() error {
	return c.nc.Flush()
}

// Close drains subscriptions and closes the connection.
func (c *Conn) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.nc.Close()
}
