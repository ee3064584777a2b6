// Package web provides a real-time telemetry dashboard for the wall
// follower: a JSON snapshot of the controller, a websocket stream of
// per-tick telemetry, and the Prometheus metrics endpoint.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ethanLin520/turtlebot3/internal/log"
	"github.com/ethanLin520/turtlebot3/pkg/follower"
	"github.com/ethanLin520/turtlebot3/pkg/hub"
)

// Server is the telemetry dashboard server.
type Server struct {
	app  *fiber.App
	port string

	mu       sync.RWMutex
	snapshot follower.Snapshot

	telemetryHub *hub.Hub

	// Rules lists the rule ladder in evaluation order, for display.
	Rules []string
}

// NewServer creates the dashboard server listening on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:         port,
		telemetryHub: hub.New("telemetry"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Wall Follower Telemetry",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/rules", s.handleRules)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))

	s.app = app
	return s
}

// Start starts the server. Blocks until shutdown.
func (s *Server) Start() error {
	log.Info("telemetry dashboard listening", "port", s.port)
	go s.telemetryHub.Run()
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("telemetry server error", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Publish stores the latest controller snapshot and pushes it to all
// connected websocket clients. Wired to the driver's per-tick hook.
func (s *Server) Publish(snap follower.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	_ = s.telemetryHub.BroadcastJSON(snap)
}

// handleState returns the latest controller snapshot.
func (s *Server) handleState(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.snapshot)
}

// handleRules returns the rule ladder in evaluation order.
func (s *Server) handleRules(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"rules": s.Rules})
}

// handleTelemetryWS streams per-tick telemetry frames.
func (s *Server) handleTelemetryWS(conn *websocket.Conn) {
	client := hub.NewClient(s.telemetryHub, conn)
	client.Run()
}
