// YAML config loader with CUE validation integration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the observation API address used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// APIConfig controls how the observation API is reached.
type APIConfig struct {
	BaseURL          string        `yaml:"base_url"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxAttempts      uint          `yaml:"max_attempts"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	ProbeAttempts    uint          `yaml:"probe_attempts"`
	ProbeDelay       time.Duration `yaml:"probe_delay"`
	InsecureProbe    bool          `yaml:"insecure_probe"`
	BreakerThreshold uint32        `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`

	// RateLimit caps outgoing requests per second; zero disables the limiter.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// LiveConfig controls the refresh cadence of live modes.
type LiveConfig struct {
	Interval           time.Duration `yaml:"interval"`
	Budget             time.Duration `yaml:"budget"`
	ContinuousInterval time.Duration `yaml:"continuous_interval"`
	Parallel           bool          `yaml:"parallel"`
}

// LogConfig selects the log destination and verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AdminConfig configures the optional metrics listener.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration of groundctl.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Live  LiveConfig  `yaml:"live"`
	Log   LogConfig   `yaml:"log"`
	Admin AdminConfig `yaml:"admin"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:          DefaultBaseURL,
			RequestTimeout:   5 * time.Second,
			MaxAttempts:      2,
			RetryDelay:       500 * time.Millisecond,
			ProbeAttempts:    3,
			ProbeDelay:       time.Second,
			InsecureProbe:    true,
			BreakerThreshold: 6,
			BreakerCooldown:  2 * time.Second,
			RateBurst:        4,
		},
		Live: LiveConfig{
			Interval:           2 * time.Second,
			Budget:             10 * time.Second,
			ContinuousInterval: 3 * time.Second,
			Parallel:           true,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads a YAML config file, validates it against the embedded CUE
// schema and overlays it on the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := ValidateWithCue(path, data, Schema()); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the constraints the schema cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.API.BaseURL)
	}

	var errs []error
	positive := map[string]time.Duration{
		"api.request_timeout":      c.API.RequestTimeout,
		"live.interval":            c.Live.Interval,
		"live.budget":              c.Live.Budget,
		"live.continuous_interval": c.Live.ContinuousInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.API.RetryDelay < 0 || c.API.ProbeDelay < 0 || c.API.BreakerCooldown < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.API.BreakerThreshold > 0 && c.API.BreakerCooldown == 0 {
		errs = append(errs, errors.New("api.breaker_cooldown must be positive while the breaker is enabled"))
	}
	if c.API.MaxAttempts == 0 {
		errs = append(errs, errors.New("api.max_attempts must be at least 1"))
	}
	if c.API.RateLimit < 0 || c.API.RateBurst < 0 {
		errs = append(errs, errors.New("api.rate_limit and api.rate_burst must not be negative"))
	}
	if c.API.ProbeAttempts == 0 {
		errs = append(errs, errors.New("api.probe_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}
