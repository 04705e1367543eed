package jsonrpc

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config binds the recognised configuration surface (spec §6) for a
// Streamable-HTTP/TCP server deployment. Individual subsystems (cache, rate
// limiter, connection pool) also expose their own functional options for
// programmatic construction; Config is the declarative, file-loadable form
// used by hosts that prefer a single YAML document.
type Config struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	UseSSL      bool   `yaml:"use_ssl" json:"use_ssl"`
	CertPath    string `yaml:"cert_path" json:"cert_path"`
	KeyPath     string `yaml:"key_path" json:"key_path"`
	CACertPath  string `yaml:"ca_cert_path" json:"ca_cert_path"`
	VerifySSL   bool   `yaml:"verify_ssl" json:"verify_ssl"`

	MCPEndpoint string `yaml:"mcp_endpoint" json:"mcp_endpoint"`

	EnableSessions         bool          `yaml:"enable_sessions" json:"enable_sessions"`
	SessionTimeoutSeconds  int           `yaml:"session_timeout_seconds" json:"session_timeout_seconds"`

	ValidateOrigin bool     `yaml:"validate_origin" json:"validate_origin"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`

	EnableCORS       bool     `yaml:"enable_cors" json:"enable_cors"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins" json:"cors_allow_origins"`
	CORSAllowMethods []string `yaml:"cors_allow_methods" json:"cors_allow_methods"`
	CORSAllowHeaders []string `yaml:"cors_allow_headers" json:"cors_allow_headers"`
	CORSMaxAge       int      `yaml:"cors_max_age" json:"cors_max_age"`

	EnableSSEResumability bool `yaml:"enable_sse_resumability" json:"enable_sse_resumability"`
	MaxStoredEvents       int  `yaml:"max_stored_events" json:"max_stored_events"`

	SendHeartbeats      bool `yaml:"send_heartbeats" json:"send_heartbeats"`
	HeartbeatIntervalMs int  `yaml:"heartbeat_interval_ms" json:"heartbeat_interval_ms"`

	EnableLegacyEndpoints bool `yaml:"enable_legacy_endpoints" json:"enable_legacy_endpoints"`
	MaxSSEClients         int  `yaml:"max_sse_clients" json:"max_sse_clients"`

	IdleTimeoutMs int `yaml:"idle_timeout_ms" json:"idle_timeout_ms"`

	ThreadPoolSize int `yaml:"thread_pool_size" json:"thread_pool_size"`
	TaskQueueSize  int `yaml:"task_queue_size" json:"task_queue_size"`

	CacheCapacity   int           `yaml:"cache_capacity" json:"cache_capacity"`
	CacheDefaultTTL time.Duration `yaml:"cache_default_ttl" json:"cache_default_ttl"`

	RateLimitRules []RateLimitRuleConfig `yaml:"rate_limit_rules" json:"rate_limit_rules"`

	Reconnect ReconnectConfig `yaml:"reconnect" json:"reconnect"`
}

// RateLimitRuleConfig is the declarative form of a ratelimit.Rule (kept here
// to avoid a config -> ratelimit import cycle). Package ratelimit has no
// function that converts it into a ratelimit.Rule.
type RateLimitRuleConfig struct {
	KeyType    string         `yaml:"key_type" json:"key_type"`
	Algorithm  string         `yaml:"algorithm" json:"algorithm"`
	KeyPattern string         `yaml:"key_pattern" json:"key_pattern"`
	Priority   int            `yaml:"priority" json:"priority"`
	Params     map[string]any `yaml:"params" json:"params"`
}

// ReconnectConfig mirrors spec §4.3's TCP client reconnection parameters.
type ReconnectConfig struct {
	Enable           bool    `yaml:"enable" json:"enable"`
	MaxAttempts      int     `yaml:"max_attempts" json:"max_attempts"`
	InitialDelayMs   int     `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMs       int     `yaml:"max_delay_ms" json:"max_delay_ms"`
	BackoffFactor    float64 `yaml:"backoff_factor" json:"backoff_factor"`
	Randomize        bool    `yaml:"randomize" json:"randomize"`
}

// DefaultConfig returns the documented defaults for every recognised option.
func DefaultConfig() *Config {
	return &Config{
		Host:                  "0.0.0.0",
		Port:                  8080,
		MCPEndpoint:           "/mcp",
		EnableSessions:        true,
		SessionTimeoutSeconds: 1800,
		CORSMaxAge:            600,
		MaxStoredEvents:       1024,
		HeartbeatIntervalMs:   15000,
		MaxSSEClients:         1000,
		ThreadPoolSize:        16,
		TaskQueueSize:         256,
		CacheCapacity:         1000,
		CacheDefaultTTL:       5 * time.Minute,
		Reconnect: ReconnectConfig{
			MaxAttempts:    0,
			InitialDelayMs: 500,
			MaxDelayMs:     30000,
			BackoffFactor:  2.0,
			Randomize:      true,
		},
	}
}

// LoadConfig reads and parses a YAML configuration document on top of
// DefaultConfig: options the document does not set keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
