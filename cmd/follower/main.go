package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/internal/log"
	"github.com/ethanLin520/turtlebot3/pkg/bus"
	"github.com/ethanLin520/turtlebot3/pkg/follower"
	"github.com/ethanLin520/turtlebot3/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	natsURL := flag.String("nats", "", "NATS URL (overrides config)")
	embedded := flag.Bool("embedded-nats", false, "Run an in-process NATS broker")
	noWeb := flag.Bool("no-web", false, "Disable the telemetry dashboard")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Init("info")
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := cfg.Log.Level
	if *debug {
		level = "debug"
	}
	log.Init(level)

	if *natsURL != "" {
		cfg.Bus.URL = *natsURL
	}
	if *noWeb {
		cfg.Web.Disabled = true
	}

	if *embedded || cfg.Bus.EmbeddedNATS {
		srv, url, err := bus.StartEmbedded("127.0.0.1", 4222)
		if err != nil {
			log.Error("failed to start embedded broker", "error", err)
			os.Exit(1)
		}
		defer srv.Shutdown()
		cfg.Bus.URL = url
		log.Info("embedded broker running", "url", url)
	}

	conn, err := bus.Connect(cfg.Bus)
	if err != nil {
		log.Error("failed to connect to bus", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	driver, err := follower.New(cfg, conn)
	if err != nil {
		log.Error("failed to create controller", "error", err)
		os.Exit(1)
	}

	if err := conn.SubscribeScan(driver.OnScan); err != nil {
		log.Error("failed to subscribe to scans", "error", err)
		os.Exit(1)
	}
	if err := conn.SubscribeOdom(driver.OnPose); err != nil {
		log.Error("failed to subscribe to odometry", "error", err)
		os.Exit(1)
	}

	var dashboard *web.Server
	if !cfg.Web.Disabled {
		dashboard = web.NewServer(cfg.Web.Port)
		dashboard.Rules = driver.Rules()
		driver.OnTick = dashboard.Publish
		dashboard.StartAsync()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		if dashboard != nil {
			_ = dashboard.Shutdown()
		}
		driver.Stop()
	}()

	log.Info("wall follower initialised",
		"tick", cfg.Control.TickInterval,
		"bus", cfg.Bus.URL,
		"scan_subject", cfg.Bus.ScanSubject,
		"cmd_subject", cfg.Bus.CmdSubject)

	driver.Run()

	log.Info("wall follower terminated")
}
