package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/pkg/odom"
)

// startTestBroker runs an embedded NATS server on a random port and returns
// a bus config pointed at it.
func startTestBroker(t *testing.T) config.BusConfig {
	t.Helper()

	srv, url, err := StartEmbedded("127.0.0.1", -1)
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.Shutdown()
		srv.WaitForShutdown()
	})

	cfg := config.Default().Bus
	cfg.URL = url
	return cfg
}

func TestScanRoundTrip(t *testing.T) {
	cfg := startTestBroker(t)

	sub, err := Connect(cfg)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan ScanData, 1)
	require.NoError(t, sub.SubscribeScan(func(ranges []float64, rangeMax float64) {
		received <- ScanData{Ranges: ranges, RangeMax: rangeMax}
	}))

	pub, err := Connect(cfg)
	require.NoError(t, err)
	defer pub.Close()

	ranges := []float64{1.0, 2.0, 3.5}
	require.NoError(t, pub.PublishScan(ranges, 3.5))
	require.NoError(t, pub.Flush())

	select {
	case got := <-received:
		assert.Equal(t, ranges, got.Ranges)
		assert.Equal(t, 3.5, got.RangeMax)
	case <-time.After(2 * time.Second):
		t.Fatal("scan not delivered")
	}
}

func TestOdomRoundTrip(t *testing.T) {
	cfg := startTestBroker(t)

	sub, err := Connect(cfg)
	require.NoError(t, err)
	defer sub.Close()

	type sample struct {
		x, y float64
		q    odom.Quaternion
	}
	received := make(chan sample, 1)
	require.NoError(t, sub.SubscribeOdom(func(x, y float64, q odom.Quaternion) {
		received <- sample{x, y, q}
	}))

	pub, err := Connect(cfg)
	require.NoError(t, err)
	defer pub.Close()

	q := odom.Quaternion{Z: 0.7071, W: 0.7071}
	require.NoError(t, pub.PublishOdom(1.5, -0.5, q))
	require.NoError(t, pub.Flush())

	select {
	case got := <-received:
		assert.Equal(t, 1.5, got.x)
		assert.Equal(t, -0.5, got.y)
		assert.Equal(t, q, got.q)
	case <-time.After(2 * time.Second):
		t.Fatal("odom not delivered")
	}
}

func TestVelocityRoundTrip(t *testing.T) {
	cfg := startTestBroker(t)

	sub, err := Connect(cfg)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan TwistData, 1)
	require.NoError(t, sub.SubscribeCmd(func(linear, angular float64) {
		received <- TwistData{Linear: linear, Angular: angular}
	}))

	pub, err := Connect(cfg)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.EmitVelocity(0.24, -1.2))
	require.NoError(t, pub.Flush())

	select {
	case got := <-received:
		assert.Equal(t, 0.24, got.Linear)
		assert.Equal(t, -1.2, got.Angular)
	case <-time.After(2 * time.Second):
		t.Fatal("command not delivered")
	}
}

func TestMalformedMessagesDropped(t *testing.T) {
	cfg := startTestBroker(t)

	sub, err := Connect(cfg)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan struct{}, 1)
	require.NoError(t, sub.SubscribeScan(func([]float64, float64) {
		received <- struct{}{}
	}))

	pub, err := Connect(cfg)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.nc.Publish(cfg.ScanSubject, []byte("not json")))
	require.NoError(t, pub.Flush())

	select {
	case <-received:
		t.Fatal("malformed message reached handler")
	case <-time.After(200 * time.Millisecond):
	}
}
