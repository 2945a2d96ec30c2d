package breaker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config is the immutable parameter record a Breaker is built from (spec
// §3's Configuration). Build one with New and a list of Options rather
// than constructing Config directly.
type Config struct {
	Name string

	FailureThreshold          float64
	MinThroughput             int
	Cooldown                  time.Duration
	ProbeInterval             int
	ConsecutiveFailuresTrip   int
	ConsecutiveSuccessesReset int
	EMAAlpha                  float64
	WindowWidth               time.Duration

	Policy     Policy
	Hooks      Hooks
	MetricSink MetricSink
	Logger     Logger
	Clock      Clock
}

// defaultConfig returns the documented defaults from spec §6, prior to
// Options being applied.
func defaultConfig() Config {
	return Config{
		FailureThreshold:          0.5,
		MinThroughput:             1,
		Cooldown:                  30 * time.Second,
		ProbeInterval:             1,
		ConsecutiveFailuresTrip:   5,
		ConsecutiveSuccessesReset: 2,
		EMAAlpha:                  0.1,
		WindowWidth:               10 * time.Second,
		MetricSink:                noopSink{},
		Logger:                    NoOpLogger{},
		Clock:                     SystemClock{},
	}
}

// Option mutates a Config under construction. Options are applied in the
// order given to New, so later options win over earlier ones.
type Option func(*Config) error

// WithName sets the breaker's identifier, used in log fields, metric
// labels, and BreakerError.Op. Defaults to a generated UUID if never set.
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithFailureThreshold sets the error-rate trip point, in (0, 1].
func WithFailureThreshold(threshold float64) Option {
	return func(c *Config) error {
		c.FailureThreshold = threshold
		return nil
	}
}

// WithMinThroughput sets the minimum window call count required before
// rate-based tripping may fire.
func WithMinThroughput(n int) Option {
	return func(c *Config) error {
		c.MinThroughput = n
		return nil
	}
}

// WithCooldown sets the minimum residence time in Open before a probe may
// be admitted.
func WithCooldown(d time.Duration) Option {
	return func(c *Config) error {
		c.Cooldown = d
		return nil
	}
}

// WithProbeInterval sets the maximum number of concurrent probe
// admissions while HalfOpen.
func WithProbeInterval(n int) Option {
	return func(c *Config) error {
		c.ProbeInterval = n
		return nil
	}
}

// WithConsecutiveFailuresTrip sets the absolute-count trip threshold,
// which bypasses MinThroughput.
func WithConsecutiveFailuresTrip(n int) Option {
	return func(c *Config) error {
		c.ConsecutiveFailuresTrip = n
		return nil
	}
}

// WithConsecutiveSuccessesReset sets the number of HalfOpen successes
// required before closing.
func WithConsecutiveSuccessesReset(n int) Option {
	return func(c *Config) error {
		c.ConsecutiveSuccessesReset = n
		return nil
	}
}

// WithEMAAlpha sets the EMA smoothing factor, in (0, 1].
func WithEMAAlpha(alpha float64) Option {
	return func(c *Config) error {
		c.EMAAlpha = alpha
		return nil
	}
}

// WithWindowWidth sets the fixed tumbling window's width.
func WithWindowWidth(d time.Duration) Option {
	return func(c *Config) error {
		c.WindowWidth = d
		return nil
	}
}

// WithPolicy overrides the default trip/reset policy.
func WithPolicy(p Policy) Option {
	return func(c *Config) error {
		c.Policy = p
		return nil
	}
}

// WithHooks registers observer callbacks for transitions and outcomes.
func WithHooks(h Hooks) Option {
	return func(c *Config) error {
		c.Hooks = h
		return nil
	}
}

// WithMetricSink registers a sink for gauges/counters. See the otel and
// prom subpackages for ready-made sinks.
func WithMetricSink(sink MetricSink) Option {
	return func(c *Config) error {
		if sink == nil {
			sink = noopSink{}
		}
		c.MetricSink = sink
		return nil
	}
}

// WithLogger registers a Logger for state-transition events.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			logger = NoOpLogger{}
		}
		c.Logger = logger
		return nil
	}
}

// WithClock injects a Clock, overriding the default SystemClock. Intended
// for tests driving a VirtualClock.
func WithClock(clock Clock) Option {
	return func(c *Config) error {
		if clock == nil {
			clock = SystemClock{}
		}
		c.Clock = clock
		return nil
	}
}

// validate checks the fully-applied Config against spec §7's
// builder-time constraints.
func (c Config) validate() error {
	if c.FailureThreshold <= 0 || c.FailureThreshold > 1 {
		return fmt.Errorf("failure threshold must be in (0, 1], got %v", c.FailureThreshold)
	}
	if c.MinThroughput < 1 {
		return fmt.Errorf("min throughput must be >= 1, got %d", c.MinThroughput)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive, got %v", c.Cooldown)
	}
	if c.ProbeInterval < 1 {
		return fmt.Errorf("probe interval must be >= 1, got %d", c.ProbeInterval)
	}
	if c.ConsecutiveFailuresTrip < 1 {
		return fmt.Errorf("consecutive failures trip must be >= 1, got %d", c.ConsecutiveFailuresTrip)
	}
	if c.ConsecutiveSuccessesReset < 1 {
		return fmt.Errorf("consecutive successes reset must be >= 1, got %d", c.ConsecutiveSuccessesReset)
	}
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		return fmt.Errorf("ema alpha must be in (0, 1], got %v", c.EMAAlpha)
	}
	if c.WindowWidth <= 0 {
		return fmt.Errorf("window width must be positive, got %v", c.WindowWidth)
	}
	return nil
}

// New builds a Breaker from the given Options, applied over defaultConfig.
// It returns a BreakerError{Kind: KindConfiguration} if the resulting
// Config fails validation.
func New(opts ...Option) (*Breaker, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, newConfigurationError(cfg.Name, err)
		}
	}
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}
	if err := cfg.validate(); err != nil {
		return nil, newConfigurationError(cfg.Name, err)
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy{
			FailureThreshold:          cfg.FailureThreshold,
			MinThroughput:             cfg.MinThroughput,
			ConsecutiveFailuresTrip:   cfg.ConsecutiveFailuresTrip,
			ConsecutiveSuccessesReset: cfg.ConsecutiveSuccessesReset,
		}
	}
	return newBreaker(cfg), nil
}
