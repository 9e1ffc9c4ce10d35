package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petra-dev/upwatch/internal/checker"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Service is a check target seeded from the config file. Targets can also
// be registered at runtime through the API.
type Service struct {
	Name           string       `yaml:"name"`
	Mode           checker.Mode `yaml:"mode"`
	URL            string       `yaml:"url"`
	ExtractionPath string       `yaml:"path"`
	Selector       string       `yaml:"selector"`
	ExpectedValue  *string      `yaml:"expect"`
}

// CheckRequest derives the evaluator input for a seeded service.
func (s Service) CheckRequest() checker.CheckRequest {
	return checker.CheckRequest{
		Mode:           s.Mode,
		URL:            s.URL,
		ExtractionPath: s.ExtractionPath,
		Selector:       s.Selector,
		ExpectedValue:  s.ExpectedValue,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StorageConfig holds storage settings. An empty path selects the
// in-memory registry.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// ChecksConfig tunes the evaluator and the refresh loop. A zero
// refresh_interval disables the loop.
type ChecksConfig struct {
	Timeout         Duration `yaml:"timeout"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	Log      LogConfig     `yaml:"log"`
	Checks   ChecksConfig  `yaml:"checks"`
	Services []Service     `yaml:"services"`
}

// Load reads, parses, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates raw YAML config data.
func Parse(data []byte) (*Config, error) {
	// Unmarshal into a raw intermediate so duration errors can be reported
	// per field instead of as opaque YAML errors.
	type rawChecks struct {
		Timeout         string `yaml:"timeout"`
		RefreshInterval string `yaml:"refresh_interval"`
	}
	type rawConfig struct {
		Server   ServerConfig  `yaml:"server"`
		Storage  StorageConfig `yaml:"storage"`
		Log      LogConfig     `yaml:"log"`
		Checks   rawChecks     `yaml:"checks"`
		Services []Service     `yaml:"services"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults.
	if raw.Server.Address == "" {
		raw.Server.Address = ":8080"
	}
	if raw.Log.Dir == "" {
		raw.Log.Dir = "logs"
	}
	if raw.Log.Level == "" {
		raw.Log.Level = "info"
	}

	cfg := &Config{
		Server:  raw.Server,
		Storage: raw.Storage,
		Log:     raw.Log,
		Checks: ChecksConfig{
			Timeout:         Duration{10 * time.Second},
			RefreshInterval: Duration{60 * time.Second},
		},
	}

	if raw.Checks.Timeout != "" {
		d, err := time.ParseDuration(raw.Checks.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid checks.timeout %q: %w", raw.Checks.Timeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("checks.timeout must be positive, got %q", raw.Checks.Timeout)
		}
		cfg.Checks.Timeout = Duration{d}
	}
	if raw.Checks.RefreshInterval != "" {
		d, err := time.ParseDuration(raw.Checks.RefreshInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid checks.refresh_interval %q: %w", raw.Checks.RefreshInterval, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("checks.refresh_interval must not be negative, got %q", raw.Checks.RefreshInterval)
		}
		cfg.Checks.RefreshInterval = Duration{d}
	}

	names := make(map[string]bool, len(raw.Services))
	for i, svc := range raw.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service[%d]: name is required", i)
		}
		if names[svc.Name] {
			return nil, fmt.Errorf("duplicate service name %q", svc.Name)
		}
		names[svc.Name] = true

		if !svc.Mode.Valid() {
			return nil, fmt.Errorf("service %q: invalid mode %q (must be %s or %s)",
				svc.Name, svc.Mode, checker.ModeStructuredAPI, checker.ModeMarkupPage)
		}
		if err := ValidateURL(svc.URL); err != nil {
			return nil, fmt.Errorf("service %q: %w", svc.Name, err)
		}
		cfg.Services = append(cfg.Services, svc)
	}

	return cfg, nil
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}
