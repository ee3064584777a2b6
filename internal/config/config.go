// Package config provides configuration loading for the wall follower.
//
// Configuration is loaded from an optional YAML file, then overridden by
// WF_* environment variables, with hardcoded defaults matching the
// reference TurtleBot3 behaviour.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete wall-follower configuration.
type Config struct {
	Control ControlConfig `koanf:"control"`
	Scan    ScanConfig    `koanf:"scan"`
	Lap     LapConfig     `koanf:"lap"`
	Policy  PolicyConfig  `koanf:"policy"`
	Bus     BusConfig     `koanf:"bus"`
	Web     WebConfig     `koanf:"web"`
	Log     LogConfig     `koanf:"log"`
}

// ControlConfig holds control-loop timing and staleness decay settings.
type ControlConfig struct {
	TickInterval time.Duration `koanf:"tick_interval"` // control period (default 100ms)
	BaseFactor   float64       `koanf:"base_factor"`   // staleness decay base, in (0,1)
}

// ScanConfig holds sector aggregation settings.
type ScanConfig struct {
	Sectors       int `koanf:"sectors"`         // number of directional sectors
	BeamHalfWidth int `koanf:"beam_half_width"` // aggregation half-window, degrees
}

// LapConfig holds start-proximity tracking settings.
type LapConfig struct {
	StartRange float64 `koanf:"start_range"` // departure/return threshold, metres
}

// PolicyConfig holds the rule-ladder thresholds and velocity constants.
// The zero value is not usable; defaults reproduce the hand-tuned ladder.
type PolicyConfig struct {
	LeftFrontClear  float64 `koanf:"left_front_clear"`  // rule 2: left-front open, sharp left
	FrontBlocked    float64 `koanf:"front_blocked"`     // rule 3: obstacle ahead
	FrontLeftNear   float64 `koanf:"front_left_near"`   // rule 4: drifting into left wall
	FrontRightNear  float64 `koanf:"front_right_near"`  // rule 5: drifting into right wall
	LeftFrontFollow float64 `koanf:"left_front_follow"` // rule 6: wall receding, gentle left
	LinearVelocity  float64 `koanf:"linear_velocity"`   // cruise speed
	SlowVelocity    float64 `koanf:"slow_velocity"`     // re-approach speed
	AngularVelocity float64 `koanf:"angular_velocity"`  // turn rate magnitude
}

// BusConfig holds NATS transport settings.
type BusConfig struct {
	URL          string `koanf:"url"`
	ScanSubject  string `koanf:"scan_subject"`
	OdomSubject  string `koanf:"odom_subject"`
	CmdSubject   string `koanf:"cmd_subject"`
	EmbeddedNATS bool   `koanf:"embedded_nats"` // run an in-process broker
}

// WebConfig holds the telemetry dashboard settings. The dashboard is on by
// default; set disabled for headless deployments.
type WebConfig struct {
	Disabled bool   `koanf:"disabled"`
	Port     string `koanf:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default configuration values, matching the reference robot behaviour.
const (
	DefaultTickInterval  = 100 * time.Millisecond
	DefaultBaseFactor    = 0.8
	DefaultSectors       = 12
	DefaultBeamHalfWidth = 10
	DefaultStartRange    = 0.2
)

func applyDefaults(cfg *Config) {
	if cfg.Control.TickInterval == 0 {
		cfg.Control.TickInterval = DefaultTickInterval
	}
	if cfg.Control.BaseFactor == 0 {
		cfg.Control.BaseFactor = DefaultBaseFactor
	}
	if cfg.Scan.Sectors == 0 {
		cfg.Scan.Sectors = DefaultSectors
	}
	if cfg.Scan.BeamHalfWidth == 0 {
		cfg.Scan.BeamHalfWidth = DefaultBeamHalfWidth
	}
	if cfg.Lap.StartRange == 0 {
		cfg.Lap.StartRange = DefaultStartRange
	}
	def := DefaultPolicy()
	if cfg.Policy.LeftFrontClear == 0 {
		cfg.Policy.LeftFrontClear = def.LeftFrontClear
	}
	if cfg.Policy.FrontBlocked == 0 {
		cfg.Policy.FrontBlocked = def.FrontBlocked
	}
	if cfg.Policy.FrontLeftNear == 0 {
		cfg.Policy.FrontLeftNear = def.FrontLeftNear
	}
	if cfg.Policy.FrontRightNear == 0 {
		cfg.Policy.FrontRightNear = def.FrontRightNear
	}
	if cfg.Policy.LeftFrontFollow == 0 {
		cfg.Policy.LeftFrontFollow = def.LeftFrontFollow
	}
	if cfg.Policy.LinearVelocity == 0 {
		cfg.Policy.LinearVelocity = def.LinearVelocity
	}
	if cfg.Policy.SlowVelocity == 0 {
		cfg.Policy.SlowVelocity = def.SlowVelocity
	}
	if cfg.Policy.AngularVelocity == 0 {
		cfg.Policy.AngularVelocity = def.AngularVelocity
	}
	if cfg.Bus.URL == "" {
		cfg.Bus.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Bus.ScanSubject == "" {
		cfg.Bus.ScanSubject = "robot.scan"
	}
	if cfg.Bus.OdomSubject == "" {
		cfg.Bus.OdomSubject = "robot.odom"
	}
	if cfg.Bus.CmdSubject == "" {
		cfg.Bus.CmdSubject = "robot.cmd_vel"
	}
	if cfg.Web.Port == "" {
		cfg.Web.Port = "8090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// DefaultPolicy returns the hand-tuned rule-ladder constants.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		LeftFrontClear:  0.9,
		FrontBlocked:    0.7,
		FrontLeftNear:   0.6,
		FrontRightNear:  0.6,
		LeftFrontFollow: 0.6,
		LinearVelocity:  0.3,
		SlowVelocity:    0.2,
		AngularVelocity: 1.5,
	}
}

// Default returns the full reference configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error

	if c.Control.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("control.tick_interval must be positive, got %s", c.Control.TickInterval))
	}
	if c.Control.BaseFactor <= 0 || c.Control.BaseFactor >= 1 {
		errs = append(errs, fmt.Errorf("control.base_factor must be in (0,1), got %g", c.Control.BaseFactor))
	}
	if c.Scan.Sectors <= 0 {
		errs = append(errs, fmt.Errorf("scan.sectors must be positive, got %d", c.Scan.Sectors))
	}
	if c.Scan.BeamHalfWidth <= 0 {
		errs = append(errs, fmt.Errorf("scan.beam_half_width must be positive, got %d", c.Scan.BeamHalfWidth))
	}
	if c.Scan.Sectors > 0 && c.Scan.BeamHalfWidth > 180/c.Scan.Sectors {
		errs = append(errs, fmt.Errorf("beam half-width %d° overlaps adjacent sectors at %d° spacing",
			c.Scan.BeamHalfWidth, 360/c.Scan.Sectors))
	}
	if c.Lap.StartRange <= 0 {
		errs = append(errs, fmt.Errorf("lap.start_range must be positive, got %g", c.Lap.StartRange))
	}
	if c.Policy.AngularVelocity <= 0 {
		errs = append(errs, fmt.Errorf("policy.angular_velocity must be positive, got %g", c.Policy.AngularVelocity))
	}

	return errors.Join(errs...)
}
