package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file,
// the command line and the environment.
const (
	DefaultServer      = "https://katello"
	DefaultPort        = 443
	DefaultMetricsPath = "/metrics"
)

// Config is the top-level exporter configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Katello KatelloConfig `yaml:"katello"`
	Listen  ListenConfig  `yaml:"listen"`

	// Debug enables verbose request/response logging.
	Debug bool `yaml:"debug"`
}

// KatelloConfig holds the upstream API connection settings.
type KatelloConfig struct {
	// Server is the base URL of the Katello / Foreman instance.
	Server string `yaml:"server"`

	// User and Password are the static basic-auth credentials sent on
	// every request.
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Insecure disables TLS certificate verification.
	// Only use this for self-signed Katello installs.
	Insecure bool `yaml:"insecure"`
}

// BaseURL returns Server without trailing slashes, ready for a path to be
// appended.
func (k KatelloConfig) BaseURL() string {
	return strings.TrimRight(k.Server, "/")
}

// ListenConfig holds the exposition server settings.
type ListenConfig struct {
	// Port is the TCP port the metrics endpoint listens on.
	Port int `yaml:"port"`

	// MetricsPath is the HTTP path serving the text exposition.
	MetricsPath string `yaml:"metrics_path"`
}

// Address returns the listen address for net/http.
func (l ListenConfig) Address() string {
	return fmt.Sprintf(":%d", l.Port)
}

// Option mutates a Config after the file has been parsed and before it is
// validated. The command line uses options to layer flag and environment
// overrides on top of the file.
type Option func(*Config)

// Load reads and parses the YAML config file at path, applies opts and
// validates the result. An empty path skips the file and starts from
// defaults.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Katello: KatelloConfig{
			Server: DefaultServer,
		},
		Listen: ListenConfig{
			Port:        DefaultPort,
			MetricsPath: DefaultMetricsPath,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Katello.Server == "" {
		return fmt.Errorf("katello.server is required")
	}
	u, err := url.Parse(cfg.Katello.Server)
	if err != nil {
		return fmt.Errorf("katello.server: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("katello.server %q: scheme must be http or https", cfg.Katello.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("katello.server %q: missing host", cfg.Katello.Server)
	}
	if cfg.Listen.Port <= 0 || cfg.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", cfg.Listen.Port)
	}
	if !strings.HasPrefix(cfg.Listen.MetricsPath, "/") {
		return fmt.Errorf("listen.metrics_path %q must start with /", cfg.Listen.MetricsPath)
	}
	return nil
}
