// Package config provides a standardized way to load, validate, and access application configuration.
// It supports loading configuration from environment variables, files (JSON/YAML), and explicit overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/hello-pipeline/internal/errors"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	Security  SecurityConfig  `json:"security" yaml:"security"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Events    EventsConfig    `json:"events" yaml:"events"`
}

// ServerConfig holds HTTP server related configuration
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	LogLevel        string        `json:"log_level" yaml:"log_level"`
	LogFormat       string        `json:"log_format" yaml:"log_format"`
	MaxRequestSize  int           `json:"max_request_size" yaml:"max_request_size"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout,omitempty"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout,omitempty"`
	ReadyTimeout    time.Duration `json:"ready_timeout" yaml:"ready_timeout,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout,omitempty"`
}

// PipelineConfig holds the handler stack configuration
type PipelineConfig struct {
	// Timeout bounds every call; zero leaves the timeout layer out
	Timeout time.Duration `json:"timeout" yaml:"timeout,omitempty"`
	// TimeoutSet marks Timeout as given explicitly, so a zero Timeout still
	// overrides lower-precedence sources in MergeConfigs
	TimeoutSet bool `json:"-" yaml:"-"`
	// Slow swaps the terminal handler for one that sleeps for SlowDelay
	Slow      bool          `json:"slow" yaml:"slow"`
	SlowDelay time.Duration `json:"slow_delay" yaml:"slow_delay,omitempty"`
	// BreakerThreshold opens the circuit after that many consecutive
	// failures; zero leaves the breaker out
	BreakerThreshold   int           `json:"breaker_threshold" yaml:"breaker_threshold"`
	BreakerOpenTimeout time.Duration `json:"breaker_open_timeout" yaml:"breaker_open_timeout,omitempty"`
}

// SecurityConfig holds security related configuration
type SecurityConfig struct {
	RateLimit       int  `json:"rate_limit" yaml:"rate_limit"`
	SecurityHeaders bool `json:"security_headers" yaml:"security_headers"`
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	EnableTracing      bool    `json:"enable_tracing" yaml:"enable_tracing"`
	Exporter           string  `json:"exporter" yaml:"exporter"`
	OTLPEndpoint       string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName        string  `json:"service_name" yaml:"service_name"`
	TraceSamplingRatio float64 `json:"trace_sampling_ratio" yaml:"trace_sampling_ratio"`
}

// EventsConfig holds the Pub/Sub request event settings. Events are off
// unless both ProjectID and TopicID are set.
type EventsConfig struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	TopicID   string `json:"topic_id" yaml:"topic_id"`
	QueueSize int    `json:"queue_size" yaml:"queue_size"`
}

// Enabled reports whether request events should be published
func (e EventsConfig) Enabled() bool {
	return e.ProjectID != "" && e.TopicID != ""
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            3678,
			LogLevel:        "info",
			LogFormat:       "json",
			MaxRequestSize:  1 * 1024 * 1024, // 1 MB
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ReadyTimeout:    5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Pipeline: PipelineConfig{
			Timeout:            5 * time.Second,
			SlowDelay:          15 * time.Second,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: 0, // unlimited
		},
		Telemetry: TelemetryConfig{
			Exporter:           "otlp",
			OTLPEndpoint:       "localhost:4317",
			ServiceName:        "hello-pipeline",
			TraceSamplingRatio: 0.1,
		},
		Events: EventsConfig{
			QueueSize: 1024,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		return errors.NewValidationError("Server.Port must be between 1024 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"trace": true,
	}
	if _, ok := validLogLevels[strings.ToLower(c.Server.LogLevel)]; !ok {
		return errors.NewValidationError("Server.LogLevel must be one of: debug, info, warn, error, fatal, trace")
	}

	if c.Server.MaxRequestSize <= 0 {
		return errors.NewValidationError("Server.MaxRequestSize must be positive")
	}

	if c.Pipeline.Timeout < 0 {
		return errors.NewValidationError("Pipeline.Timeout cannot be negative")
	}
	if c.Pipeline.Slow && c.Pipeline.SlowDelay <= 0 {
		return errors.NewValidationError("Pipeline.SlowDelay must be positive when Pipeline.Slow is enabled")
	}

	if c.Pipeline.BreakerThreshold < 0 {
		return errors.NewValidationError("Pipeline.BreakerThreshold cannot be negative")
	}

	if c.Security.RateLimit < 0 {
		return errors.NewValidationError("Security.RateLimit cannot be negative")
	}

	switch c.Telemetry.Exporter {
	case "", "otlp":
		if c.Telemetry.EnableTracing && c.Telemetry.OTLPEndpoint == "" {
			return errors.NewValidationError("Telemetry.OTLPEndpoint is required when tracing is enabled")
		}
	case "stdout":
	default:
		return errors.NewValidationError("Telemetry.Exporter must be one of: otlp, stdout")
	}
	if c.Telemetry.TraceSamplingRatio < 0 || c.Telemetry.TraceSamplingRatio > 1 {
		return errors.NewValidationError("Telemetry.TraceSamplingRatio must be between 0 and 1")
	}

	if (c.Events.ProjectID == "") != (c.Events.TopicID == "") {
		return errors.NewValidationError("Events.ProjectID and Events.TopicID must be set together")
	}
	if c.Events.QueueSize < 0 {
		return errors.NewValidationError("Events.QueueSize cannot be negative")
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	// Load Server config
	if val := os.Getenv("HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Server.LogLevel = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Server.LogFormat = val
	}
	if val := os.Getenv("MAX_REQUEST_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			cfg.Server.MaxRequestSize = size
		}
	}
	if d, ok := envDuration("READ_TIMEOUT"); ok {
		cfg.Server.ReadTimeout = d
	}
	if d, ok := envDuration("WRITE_TIMEOUT"); ok {
		cfg.Server.WriteTimeout = d
	}
	if d, ok := envDuration("IDLE_TIMEOUT"); ok {
		cfg.Server.IdleTimeout = d
	}
	if d, ok := envDuration("READY_TIMEOUT"); ok {
		cfg.Server.ReadyTimeout = d
	}
	if d, ok := envDuration("SHUTDOWN_TIMEOUT"); ok {
		cfg.Server.ShutdownTimeout = d
	}

	// Load Pipeline config. REQUEST_TIMEOUT=0 turns the timeout off.
	if val := os.Getenv("REQUEST_TIMEOUT"); val != "" {
		if d, err := parseDuration(val); err == nil && d >= 0 {
			cfg.Pipeline.Timeout = d
			cfg.Pipeline.TimeoutSet = true
		}
	}
	if val := os.Getenv("SLOW_HANDLER"); val != "" {
		cfg.Pipeline.Slow = strings.ToLower(val) == "true" || val == "1"
	}
	if d, ok := envDuration("SLOW_DELAY"); ok {
		cfg.Pipeline.SlowDelay = d
	}

	if val := os.Getenv("BREAKER_THRESHOLD"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			cfg.Pipeline.BreakerThreshold = n
		}
	}
	if d, ok := envDuration("BREAKER_OPEN_TIMEOUT"); ok {
		cfg.Pipeline.BreakerOpenTimeout = d
	}

	// Load Security config
	if val := os.Getenv("RATE_LIMIT"); val != "" {
		if limit, err := strconv.Atoi(val); err == nil && limit >= 0 {
			cfg.Security.RateLimit = limit
		}
	}
	if val := os.Getenv("SECURITY_HEADERS"); val != "" {
		cfg.Security.SecurityHeaders = strings.ToLower(val) == "true" || val == "1"
	}

	// Load Telemetry config
	if val := os.Getenv("ENABLE_TRACING"); val != "" {
		cfg.Telemetry.EnableTracing = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("TRACE_EXPORTER"); val != "" {
		cfg.Telemetry.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("OTEL_SERVICE_NAME"); val != "" {
		cfg.Telemetry.ServiceName = val
	}
	if val := os.Getenv("TRACE_SAMPLING_RATIO"); val != "" {
		if ratio, err := strconv.ParseFloat(val, 64); err == nil && ratio >= 0 && ratio <= 1 {
			cfg.Telemetry.TraceSamplingRatio = ratio
		}
	}

	// Load Events config
	if val := os.Getenv("PROJECT_ID"); val != "" {
		cfg.Events.ProjectID = val
	}
	if val := os.Getenv("TOPIC_ID"); val != "" {
		cfg.Events.TopicID = val
	}
	if val := os.Getenv("EVENT_QUEUE_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			cfg.Events.QueueSize = size
		}
	}

	return cfg, nil
}

// envDuration reads a duration given either as whole seconds or in
// time.ParseDuration syntax
func envDuration(key string) (time.Duration, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	d, err := parseDuration(val)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func parseDuration(val string) (time.Duration, error) {
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(val)
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Durations are strings in files ("30s" or "30")
	type tempConfig struct {
		Server struct {
			Host            string `json:"host" yaml:"host"`
			Port            int    `json:"port" yaml:"port"`
			LogLevel        string `json:"log_level" yaml:"log_level"`
			LogFormat       string `json:"log_format" yaml:"log_format"`
			MaxRequestSize  int    `json:"max_request_size" yaml:"max_request_size"`
			ReadTimeout     string `json:"read_timeout" yaml:"read_timeout"`
			WriteTimeout    string `json:"write_timeout" yaml:"write_timeout"`
			IdleTimeout     string `json:"idle_timeout" yaml:"idle_timeout"`
			ReadyTimeout    string `json:"ready_timeout" yaml:"ready_timeout"`
			ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout"`
		} `json:"server" yaml:"server"`
		Pipeline struct {
			Timeout   string `json:"timeout" yaml:"timeout"`
			Slow      bool   `json:"slow" yaml:"slow"`
			SlowDelay string `json:"slow_delay" yaml:"slow_delay"`

			BreakerThreshold   int    `json:"breaker_threshold" yaml:"breaker_threshold"`
			BreakerOpenTimeout string `json:"breaker_open_timeout" yaml:"breaker_open_timeout"`
		} `json:"pipeline" yaml:"pipeline"`
		Security  SecurityConfig  `json:"security" yaml:"security"`
		Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
		Events    EventsConfig    `json:"events" yaml:"events"`
	}

	var tempCfg tempConfig

	// Determine file type from extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &tempCfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON config file")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tempCfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML config file")
		}
	default:
		return nil, errors.NewValidationError("unsupported config file format: " + ext)
	}

	// Only fields present in the file are set; MergeConfigs layers the result over defaults
	cfg := &Config{
		Security:  tempCfg.Security,
		Telemetry: tempCfg.Telemetry,
		Events:    tempCfg.Events,
	}
	cfg.Server.Host = tempCfg.Server.Host
	cfg.Server.Port = tempCfg.Server.Port
	cfg.Server.LogLevel = tempCfg.Server.LogLevel
	cfg.Server.LogFormat = tempCfg.Server.LogFormat
	cfg.Server.MaxRequestSize = tempCfg.Server.MaxRequestSize
	cfg.Pipeline.Slow = tempCfg.Pipeline.Slow
	cfg.Pipeline.BreakerThreshold = tempCfg.Pipeline.BreakerThreshold

	durations := []struct {
		name string
		val  string
		dst  *time.Duration
	}{
		{"server.read_timeout", tempCfg.Server.ReadTimeout, &cfg.Server.ReadTimeout},
		{"server.write_timeout", tempCfg.Server.WriteTimeout, &cfg.Server.WriteTimeout},
		{"server.idle_timeout", tempCfg.Server.IdleTimeout, &cfg.Server.IdleTimeout},
		{"server.ready_timeout", tempCfg.Server.ReadyTimeout, &cfg.Server.ReadyTimeout},
		{"server.shutdown_timeout", tempCfg.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"pipeline.timeout", tempCfg.Pipeline.Timeout, &cfg.Pipeline.Timeout},
		{"pipeline.slow_delay", tempCfg.Pipeline.SlowDelay, &cfg.Pipeline.SlowDelay},
		{"pipeline.breaker_open_timeout", tempCfg.Pipeline.BreakerOpenTimeout, &cfg.Pipeline.BreakerOpenTimeout},
	}
	for _, d := range durations {
		if d.val == "" {
			continue
		}
		parsed, err := parseDuration(d.val)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid duration for %s: %q", d.name, d.val))
		}
		*d.dst = parsed
	}
	cfg.Pipeline.TimeoutSet = tempCfg.Pipeline.Timeout != ""

	return cfg, nil
}

// MergeConfigs merges two configurations, with the second taking precedence
func MergeConfigs(base, override *Config) *Config {
	result := *base

	// Only override non-zero values
	if override == nil {
		return &result
	}

	// Server config
	if override.Server.Host != "" {
		result.Server.Host = override.Server.Host
	}
	if override.Server.Port != 0 {
		result.Server.Port = override.Server.Port
	}
	if override.Server.LogLevel != "" {
		result.Server.LogLevel = override.Server.LogLevel
	}
	if override.Server.LogFormat != "" {
		result.Server.LogFormat = override.Server.LogFormat
	}
	if override.Server.MaxRequestSize != 0 {
		result.Server.MaxRequestSize = override.Server.MaxRequestSize
	}
	if override.Server.ReadTimeout != 0 {
		result.Server.ReadTimeout = override.Server.ReadTimeout
	}
	if override.Server.WriteTimeout != 0 {
		result.Server.WriteTimeout = override.Server.WriteTimeout
	}
	if override.Server.IdleTimeout != 0 {
		result.Server.IdleTimeout = override.Server.IdleTimeout
	}
	if override.Server.ReadyTimeout != 0 {
		result.Server.ReadyTimeout = override.Server.ReadyTimeout
	}
	if override.Server.ShutdownTimeout != 0 {
		result.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	// Pipeline config
	if override.Pipeline.Timeout != 0 || override.Pipeline.TimeoutSet {
		result.Pipeline.Timeout = override.Pipeline.Timeout
		result.Pipeline.TimeoutSet = true
	}
	// We need to explicitly check booleans
	if override.Pipeline.Slow {
		result.Pipeline.Slow = true
	}
	if override.Pipeline.SlowDelay != 0 {
		result.Pipeline.SlowDelay = override.Pipeline.SlowDelay
	}

	if override.Pipeline.BreakerThreshold != 0 {
		result.Pipeline.BreakerThreshold = override.Pipeline.BreakerThreshold
	}
	if override.Pipeline.BreakerOpenTimeout != 0 {
		result.Pipeline.BreakerOpenTimeout = override.Pipeline.BreakerOpenTimeout
	}

	// Security config
	if override.Security.RateLimit != 0 {
		result.Security.RateLimit = override.Security.RateLimit
	}
	if override.Security.SecurityHeaders {
		result.Security.SecurityHeaders = true
	}

	// Telemetry config
	if override.Telemetry.EnableTracing {
		result.Telemetry.EnableTracing = true
	}
	if override.Telemetry.Exporter != "" {
		result.Telemetry.Exporter = override.Telemetry.Exporter
	}
	if override.Telemetry.OTLPEndpoint != "" {
		result.Telemetry.OTLPEndpoint = override.Telemetry.OTLPEndpoint
	}
	if override.Telemetry.ServiceName != "" {
		result.Telemetry.ServiceName = override.Telemetry.ServiceName
	}
	if override.Telemetry.TraceSamplingRatio != 0 {
		result.Telemetry.TraceSamplingRatio = override.Telemetry.TraceSamplingRatio
	}

	// Events config
	if override.Events.ProjectID != "" {
		result.Events.ProjectID = override.Events.ProjectID
	}
	if override.Events.TopicID != "" {
		result.Events.TopicID = override.Events.TopicID
	}
	if override.Events.QueueSize != 0 {
		result.Events.QueueSize = override.Events.QueueSize
	}

	return &result
}

// Load loads the configuration from multiple sources with the following precedence:
// 1. Override (highest precedence)
// 2. Environment variables
// 3. Config file
// 4. Default values (lowest precedence)
func Load(configFile string, override *Config) (*Config, error) {
	// Start with default configuration
	cfg := DefaultConfig()

	// Load from file if provided
	if configFile != "" {
		fileCfg, err := LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = MergeConfigs(cfg, fileCfg)
	}

	// Load from environment variables
	envCfg, err := loadEnvOverrides()
	if err != nil {
		return nil, err
	}
	cfg = MergeConfigs(cfg, envCfg)

	// Apply explicit overrides
	if override != nil {
		cfg = MergeConfigs(cfg, override)
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvOverrides returns only the values set in the environment, so that
// defaults do not clobber file values during the merge
func loadEnvOverrides() (*Config, error) {
	envCfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	diff := &Config{}

	if envCfg.Server.Host != defaults.Server.Host {
		diff.Server.Host = envCfg.Server.Host
	}
	if envCfg.Server.Port != defaults.Server.Port {
		diff.Server.Port = envCfg.Server.Port
	}
	if envCfg.Server.LogLevel != defaults.Server.LogLevel {
		diff.Server.LogLevel = envCfg.Server.LogLevel
	}
	if envCfg.Server.LogFormat != defaults.Server.LogFormat {
		diff.Server.LogFormat = envCfg.Server.LogFormat
	}
	if envCfg.Server.MaxRequestSize != defaults.Server.MaxRequestSize {
		diff.Server.MaxRequestSize = envCfg.Server.MaxRequestSize
	}
	if envCfg.Server.ReadTimeout != defaults.Server.ReadTimeout {
		diff.Server.ReadTimeout = envCfg.Server.ReadTimeout
	}
	if envCfg.Server.WriteTimeout != defaults.Server.WriteTimeout {
		diff.Server.WriteTimeout = envCfg.Server.WriteTimeout
	}
	if envCfg.Server.IdleTimeout != defaults.Server.IdleTimeout {
		diff.Server.IdleTimeout = envCfg.Server.IdleTimeout
	}
	if envCfg.Server.ReadyTimeout != defaults.Server.ReadyTimeout {
		diff.Server.ReadyTimeout = envCfg.Server.ReadyTimeout
	}
	if envCfg.Server.ShutdownTimeout != defaults.Server.ShutdownTimeout {
		diff.Server.ShutdownTimeout = envCfg.Server.ShutdownTimeout
	}
	if envCfg.Pipeline.TimeoutSet {
		diff.Pipeline.Timeout = envCfg.Pipeline.Timeout
		diff.Pipeline.TimeoutSet = true
	}
	diff.Pipeline.Slow = envCfg.Pipeline.Slow
	if envCfg.Pipeline.SlowDelay != defaults.Pipeline.SlowDelay {
		diff.Pipeline.SlowDelay = envCfg.Pipeline.SlowDelay
	}
	diff.Pipeline.BreakerThreshold = envCfg.Pipeline.BreakerThreshold
	if envCfg.Pipeline.BreakerOpenTimeout != defaults.Pipeline.BreakerOpenTimeout {
		diff.Pipeline.BreakerOpenTimeout = envCfg.Pipeline.BreakerOpenTimeout
	}
	diff.Security = envCfg.Security
	diff.Telemetry.EnableTracing = envCfg.Telemetry.EnableTracing
	if envCfg.Telemetry.Exporter != defaults.Telemetry.Exporter {
		diff.Telemetry.Exporter = envCfg.Telemetry.Exporter
	}
	if envCfg.Telemetry.OTLPEndpoint != defaults.Telemetry.OTLPEndpoint {
		diff.Telemetry.OTLPEndpoint = envCfg.Telemetry.OTLPEndpoint
	}
	if envCfg.Telemetry.ServiceName != defaults.Telemetry.ServiceName {
		diff.Telemetry.ServiceName = envCfg.Telemetry.ServiceName
	}
	if envCfg.Telemetry.TraceSamplingRatio != defaults.Telemetry.TraceSamplingRatio {
		diff.Telemetry.TraceSamplingRatio = envCfg.Telemetry.TraceSamplingRatio
	}
	diff.Events.ProjectID = envCfg.Events.ProjectID
	diff.Events.TopicID = envCfg.Events.TopicID
	if envCfg.Events.QueueSize != defaults.Events.QueueSize {
		diff.Events.QueueSize = envCfg.Events.QueueSize
	}

	return diff, nil
}

// String returns a JSON representation of the configuration
func (c *Config) String() string {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling config: %v", err)
	}

	return string(bytes)
}
