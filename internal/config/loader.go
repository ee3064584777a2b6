package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, e.g. WF_CONTROL_TICK_INTERVAL.
const envPrefix = "WF_"

// Load reads configuration from the given YAML file (skipped when empty or
// missing), then overrides with WF_* environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (WF_CONTROL_BASE_FACTOR, WF_BUS_URL, ...)
//  2. YAML config file
//  3. Hardcoded defaults (reference robot behaviour)
//
// Environment variables map to config keys by stripping the prefix,
// lowercasing, and splitting section from field on the first underscore:
//
//	WF_CONTROL_TICK_INTERVAL -> control.tick_interval
//	WF_BUS_SCAN_SUBJECT      -> bus.scan_subject
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
