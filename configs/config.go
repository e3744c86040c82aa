package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileConfig defines the structure loaded from the optional YAML
// configuration file. Everything here can also be supplied (and is
// overridden) by environment variables.
type FileConfig struct {
	UpstreamBaseURL string            `yaml:"upstream_base_url"`
	OpenAPIDocURL   string            `yaml:"openapi_doc_url"`
	CacheTTLs       map[string]string `yaml:"cache_ttls"` // resource -> Go duration string
}

// Config holds the final application configuration, merged from file and
// environment variables. Environment variables use the "APPGAUGE_" prefix
// and win over file settings.
type Config struct {
	// Config file path (loaded first from env).
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// Upstream API.
	UpstreamBaseURL   string        `envconfig:"UPSTREAM_BASE_URL"`
	APIKey            string        `envconfig:"API_KEY"`
	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`

	// Published OpenAPI document of the upstream, used by the contract
	// checker. Empty disables the check.
	OpenAPIDocURL string `envconfig:"OPENAPI_DOC_URL"`

	// Servers.
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AdminAddr       string        `envconfig:"ADMIN_ADDR" default:":8081"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// Observability.
	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile                  string `envconfig:"LOG_FILE" default:"/tmp/appgauge.log"`

	// Per-resource cache TTL overrides, merged from the file. Zero values
	// fall back to the gateway defaults.
	CacheTTLs map[string]time.Duration
}

// ParsedLogLevel returns the slog.Level for the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration first from environment variables (to get the
// file path), then from the YAML file if one is configured, and finally
// processes environment variables again so they override file settings.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process("appgauge", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
	}

	finalCfg := initialCfg
	if finalCfg.UpstreamBaseURL == "" {
		finalCfg.UpstreamBaseURL = fileCfg.UpstreamBaseURL
	}
	if finalCfg.OpenAPIDocURL == "" {
		finalCfg.OpenAPIDocURL = fileCfg.OpenAPIDocURL
	}

	finalCfg.CacheTTLs = make(map[string]time.Duration, len(fileCfg.CacheTTLs))
	for resource, raw := range fileCfg.CacheTTLs {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid cache TTL for %q: %w", resource, err)
		}
		finalCfg.CacheTTLs[strings.ToLower(resource)] = d
	}

	// Process environment variables again so they win over file settings.
	if err := envconfig.Process("appgauge", &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	if finalCfg.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("upstream base URL not configured (APPGAUGE_UPSTREAM_BASE_URL)")
	}
	if finalCfg.APIKey == "" {
		return nil, fmt.Errorf("API key not configured (APPGAUGE_API_KEY)")
	}

	return &finalCfg, nil
}

// TTL returns the configured override for resource, or fallback when none
// is set.
func (c *Config) TTL(resource string, fallback time.Duration) time.Duration {
	if d, ok := c.CacheTTLs[resource]; ok && d > 0 {
		return d
	}
	return fallback
}
