package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCollectInterval = 15 * time.Second
	DefaultEventLimit      = 50
	DefaultSnapshotTTL     = 5 * time.Minute
	DefaultDashboardHost   = "0.0.0.0"
	DefaultDashboardPort   = 8080
)

// Default alert thresholds. CPU/memory are percent of the configured limit;
// restarts are cumulative counts.
const (
	DefaultCPUWarn     = 70
	DefaultCPUCrit     = 90
	DefaultMemWarn     = 75
	DefaultMemCrit     = 90
	DefaultRestartWarn = 3
	DefaultRestartCrit = 5
)

// Config is the top-level KubeWatch configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Kube       KubeConfig       `yaml:"kube"`
	Collect    CollectConfig    `yaml:"collect"`
	Thresholds Thresholds       `yaml:"thresholds"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Webhook    Webhook          `yaml:"webhook"`
}

// KubeConfig holds cluster connection settings.
type KubeConfig struct {
	// Kubeconfig is the path to the kubeconfig file. Empty means in-cluster
	// config first, then the default kubeconfig locations.
	Kubeconfig string `yaml:"kubeconfig"`

	// Context selects a kubeconfig context; empty uses the current context.
	Context string `yaml:"context"`

	// Namespace scopes collection to one namespace.
	Namespace string `yaml:"namespace"`

	// AllNamespaces collects cluster-wide, ignoring Namespace.
	AllNamespaces bool `yaml:"all_namespaces"`
}

// CollectConfig controls the collection loop.
type CollectConfig struct {
	// Interval is how often the dashboard poll loop collects and evaluates.
	Interval time.Duration `yaml:"interval"`

	// EventLimit caps how many recent events are kept per snapshot.
	EventLimit int `yaml:"event_limit"`

	// SnapshotTTL is how long a stored observation stays live without
	// a newer collection replacing it.
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// Thresholds holds the alert thresholds the rule evaluators compare against.
// Fixed at engine construction; a config reload takes effect on the next
// engine build, never mid-cycle.
type Thresholds struct {
	CPUWarn     float64 `yaml:"cpu_warn"`
	CPUCrit     float64 `yaml:"cpu_crit"`
	MemWarn     float64 `yaml:"mem_warn"`
	MemCrit     float64 `yaml:"mem_crit"`
	RestartWarn int32   `yaml:"restart_warn"`
	RestartCrit int32   `yaml:"restart_crit"`
}

// PrometheusConfig holds optional Prometheus enrichment settings.
type PrometheusConfig struct {
	// URL is the base URL of a Prometheus server. Empty disables enrichment.
	URL string `yaml:"url"`
}

// DashboardConfig holds the HTTP dashboard listener settings.
type DashboardConfig struct {
	Host string     `yaml:"host"`
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig configures API-key authentication for the dashboard API.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// Webhook defines the outbound notification target for new alerts.
type Webhook struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
// Empty means notifications are disabled.
func (w Webhook) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values. It is a valid
// configuration on its own, so the CLI can run without a config file.
func Default() *Config {
	return &Config{
		Kube: KubeConfig{
			Namespace: "default",
		},
		Collect: CollectConfig{
			Interval:    DefaultCollectInterval,
			EventLimit:  DefaultEventLimit,
			SnapshotTTL: DefaultSnapshotTTL,
		},
		Thresholds: Thresholds{
			CPUWarn:     DefaultCPUWarn,
			CPUCrit:     DefaultCPUCrit,
			MemWarn:     DefaultMemWarn,
			MemCrit:     DefaultMemCrit,
			RestartWarn: DefaultRestartWarn,
			RestartCrit: DefaultRestartCrit,
		},
		Dashboard: DashboardConfig{
			Host: DefaultDashboardHost,
			Port: DefaultDashboardPort,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Collect.Interval <= 0 {
		return fmt.Errorf("collect.interval must be positive")
	}
	if cfg.Collect.EventLimit <= 0 {
		return fmt.Errorf("collect.event_limit must be positive")
	}
	if cfg.Collect.SnapshotTTL <= 0 {
		return fmt.Errorf("collect.snapshot_ttl must be positive")
	}
	t := cfg.Thresholds
	if t.CPUWarn <= 0 || t.CPUCrit <= 0 || t.CPUWarn > t.CPUCrit {
		return fmt.Errorf("thresholds: cpu_warn %v / cpu_crit %v invalid", t.CPUWarn, t.CPUCrit)
	}
	if t.MemWarn <= 0 || t.MemCrit <= 0 || t.MemWarn > t.MemCrit {
		return fmt.Errorf("thresholds: mem_warn %v / mem_crit %v invalid", t.MemWarn, t.MemCrit)
	}
	if t.RestartWarn <= 0 || t.RestartCrit <= 0 || t.RestartWarn > t.RestartCrit {
		return fmt.Errorf("thresholds: restart_warn %d / restart_crit %d invalid", t.RestartWarn, t.RestartCrit)
	}
	if cfg.Dashboard.Port <= 0 || cfg.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port %d is out of range [1, 65535]", cfg.Dashboard.Port)
	}
	switch cfg.Dashboard.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("dashboard.auth.mode %q unknown: want apikey|none", cfg.Dashboard.Auth.Mode)
	}
	switch cfg.Webhook.Type {
	case "slack", "teams", "http", "":
	default:
		return fmt.Errorf("webhook.type %q unknown: want slack|teams|http", cfg.Webhook.Type)
	}
	return nil
}
