// Package config loads breaker.Option values from a YAML document, kept
// outside the breaker package per its Non-goal on configuration
// front-ends: the core Breaker never reads a file itself.
package config

import (
	"fmt"
	"os"
	"time"

	breaker "github.com/copyleftdev/circuitbreaker"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors breaker.Config's tunable fields with yaml tags,
// following this corpus's convention of a tagged struct mapped 1:1 onto
// the functional-options Config it ultimately builds.
type fileConfig struct {
	Name                      string  `yaml:"name"`
	FailureThreshold          float64 `yaml:"failure_threshold"`
	MinThroughput             int     `yaml:"min_throughput"`
	Cooldown                  string  `yaml:"cooldown"`
	ProbeInterval             int     `yaml:"probe_interval"`
	ConsecutiveFailuresTrip   int     `yaml:"consecutive_failures_trip"`
	ConsecutiveSuccessesReset int     `yaml:"consecutive_successes_reset"`
	EMAAlpha                  float64 `yaml:"ema_alpha"`
	WindowWidth               string  `yaml:"window_width"`
}

// LoadYAML reads path and returns the breaker.Option slice equivalent to
// the document's fields. Zero-valued fields are omitted rather than
// forwarded as explicit overrides, so defaultConfig's own defaults still
// apply to anything the file leaves unset.
func LoadYAML(path string) ([]breaker.Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return optionsFromFile(fc)
}

func optionsFromFile(fc fileConfig) ([]breaker.Option, error) {
	var opts []breaker.Option

	if fc.Name != "" {
		opts = append(opts, breaker.WithName(fc.Name))
	}
	if fc.FailureThreshold != 0 {
		opts = append(opts, breaker.WithFailureThreshold(fc.FailureThreshold))
	}
	if fc.MinThroughput != 0 {
		opts = append(opts, breaker.WithMinThroughput(fc.MinThroughput))
	}
	if fc.Cooldown != "" {
		d, err := time.ParseDuration(fc.Cooldown)
		if err != nil {
			return nil, fmt.Errorf("config: invalid cooldown %q: %w", fc.Cooldown, err)
		}
		opts = append(opts, breaker.WithCooldown(d))
	}
	if fc.ProbeInterval != 0 {
		opts = append(opts, breaker.WithProbeInterval(fc.ProbeInterval))
	}
	if fc.ConsecutiveFailuresTrip != 0 {
		opts = append(opts, breaker.WithConsecutiveFailuresTrip(fc.ConsecutiveFailuresTrip))
	}
	if fc.ConsecutiveSuccessesReset != 0 {
		opts = append(opts, breaker.WithConsecutiveSuccessesReset(fc.ConsecutiveSuccessesReset))
	}
	if fc.EMAAlpha != 0 {
		opts = append(opts, breaker.WithEMAAlpha(fc.EMAAlpha))
	}
	if fc.WindowWidth != "" {
		d, err := time.ParseDuration(fc.WindowWidth)
		if err != nil {
			return nil, fmt.Errorf("config: invalid window_width %q: %w", fc.WindowWidth, err)
		}
		opts = append(opts, breaker.WithWindowWidth(d))
	}

	return opts, nil
}
