package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/configutil"
)

type Config struct {
	Environment    string           `mapstructure:"environment"`
	Log            LogConfig        `mapstructure:"log"`
	Channel        ProviderConfig   `mapstructure:"channel"`
	Generation     ProviderConfig   `mapstructure:"generation"`
	Store          ProviderConfig   `mapstructure:"store"`
	Session        SessionConfig    `mapstructure:"session"`
	Telemetry      TelemetryConfig  `mapstructure:"telemetry"`
	Resilience     ResilienceConfig `mapstructure:"resilience"`
	Privacy        PrivacyConfig    `mapstructure:"privacy"`
	Metrics        MetricsConfig    `mapstructure:"metrics"`
	DrainTimeoutMS int              `mapstructure:"drain_timeout_ms"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ProviderConfig selects an implementation and carries its free-form settings.
type ProviderConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type SessionConfig struct {
	WorkflowID              string `mapstructure:"workflow_id"`
	InterviewerID           string `mapstructure:"interviewer_id"`
	RetryDelayMS            int    `mapstructure:"retry_delay_ms"`
	TelemetryStartTimeoutMS int    `mapstructure:"telemetry_start_timeout_ms"`
	TelemetryStopTimeoutMS  int    `mapstructure:"telemetry_stop_timeout_ms"`
	HomeRoute               string `mapstructure:"home_route"`
	InterviewsRoute         string `mapstructure:"interviews_route"`
}

type TelemetryConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	URL              string `mapstructure:"url"`
	ControlURL       string `mapstructure:"control_url"`
	ControlTimeoutMS int    `mapstructure:"control_timeout_ms"`
	AlertTTLMS       int    `mapstructure:"alert_ttl_ms"`
	PingIntervalMS   int    `mapstructure:"ping_interval_ms"`
}

type ResilienceConfig struct {
	Retries           int `mapstructure:"retries"`
	RetryBackoffMS    int `mapstructure:"retry_backoff_ms"`
	BreakerThreshold  int `mapstructure:"breaker_threshold"`
	BreakerCooldownMS int `mapstructure:"breaker_cooldown_ms"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

type MetricsConfig struct {
	// JSONLPath, when set, appends metrics events to a JSON lines file.
	JSONLPath string `mapstructure:"jsonl_path"`
	Buffer    int    `mapstructure:"buffer"`
}

// Channel, generation and store providers.
const (
	ChannelWS   = "ws"
	ChannelMock = "mock"

	GenerationGemini = "gemini"
	GenerationNone   = "none"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// LoadConfig reads path, applies defaults, expands ${ENV} references and
// validates the result.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("channel.provider", ChannelMock)
	v.SetDefault("generation.provider", GenerationNone)
	v.SetDefault("store.provider", StoreMemory)
	v.SetDefault("session.retry_delay_ms", 1000)
	v.SetDefault("session.telemetry_start_timeout_ms", 5000)
	v.SetDefault("session.telemetry_stop_timeout_ms", 5000)
	v.SetDefault("session.home_route", "/")
	v.SetDefault("session.interviews_route", "/")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.url", "ws://localhost:5000")
	v.SetDefault("telemetry.control_timeout_ms", 5000)
	v.SetDefault("telemetry.alert_ttl_ms", 5000)
	v.SetDefault("telemetry.ping_interval_ms", 0)
	v.SetDefault("resilience.retries", 2)
	v.SetDefault("resilience.retry_backoff_ms", 300)
	v.SetDefault("resilience.breaker_threshold", 3)
	v.SetDefault("resilience.breaker_cooldown_ms", 30000)
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("metrics.buffer", 256)
	v.SetDefault("drain_timeout_ms", 10000)
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Channel.Provider)) {
	case ChannelWS:
		if _, err := c.WSChannel(); err != nil {
			return err
		}
	case ChannelMock:
	case "":
		return fmt.Errorf("channel.provider is required")
	default:
		return fmt.Errorf("channel.provider %q is not supported", c.Channel.Provider)
	}

	switch strings.ToLower(strings.TrimSpace(c.Generation.Provider)) {
	case GenerationGemini:
		if _, err := c.Gemini(); err != nil {
			return err
		}
	case GenerationNone, "":
	default:
		return fmt.Errorf("generation.provider %q is not supported", c.Generation.Provider)
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Provider)) {
	case StorePostgres:
		if _, err := c.Postgres(); err != nil {
			return err
		}
	case StoreMemory, "":
	default:
		return fmt.Errorf("store.provider %q is not supported", c.Store.Provider)
	}

	if c.Telemetry.Enabled {
		if err := configutil.RequireString(c.Telemetry.URL, "telemetry.url"); err != nil {
			return err
		}
	}
	if c.Session.TelemetryStopTimeoutMS < 0 || c.Session.TelemetryStartTimeoutMS < 0 {
		return fmt.Errorf("session telemetry timeouts must not be negative")
	}
	return nil
}

// RetryDelay converts session.retry_delay_ms; zero disables the wait.
func (s SessionConfig) RetryDelay() time.Duration {
	if s.RetryDelayMS <= 0 {
		return -1
	}
	return time.Duration(s.RetryDelayMS) * time.Millisecond
}

func (c Config) DrainTimeout() time.Duration {
	return configutil.Millis(c.DrainTimeoutMS, 10*time.Second)
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Channel.Settings = expandSettings(cfg.Channel.Settings)
	cfg.Generation.Settings = expandSettings(cfg.Generation.Settings)
	cfg.Store.Settings = expandSettings(cfg.Store.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	}
}
