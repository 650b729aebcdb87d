package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"resumind/internal/errors"
	"resumind/internal/feedback"
)

// Config is the root application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	AI         AIConfig         `mapstructure:"ai"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Usage      UsageConfig      `mapstructure:"usage"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Vault      VaultConfig      `mapstructure:"vault"`

	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds application-wide settings
type AppConfig struct {
	LogLevel      string `mapstructure:"logLevel"`
	DefaultFormat string `mapstructure:"defaultFormat"`
}

// PromptConfig holds optional prompt overrides, inline or from files
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// CircuitBreakerConfig controls the per-operation AI circuit breaker
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// OperationAIConfig is the effective AI configuration for one operation
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	APIKey           string               `mapstructure:"apiKey"`
	Temperature      *float32             `mapstructure:"temperature"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// AIConfig holds global AI settings plus per-operation overrides
type AIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	APIKey           string               `mapstructure:"apiKey"`
	Temperature      *float32             `mapstructure:"temperature"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	Review OperationAIConfig `mapstructure:"review"`
}

// RateLimitConfig controls per-client request throttling
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst"`
	CleanupInterval   time.Duration `mapstructure:"cleanupInterval"`
}

// AutoReloadConfig controls certificate hot reloading
type AutoReloadConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// TLSConfig holds the server TLS settings
type TLSConfig struct {
	Mode             string           `mapstructure:"mode"`
	CertFile         string           `mapstructure:"certFile"`
	KeyFile          string           `mapstructure:"keyFile"`
	CAFile           string           `mapstructure:"caFile"`
	CertContent      string           `mapstructure:"certContent"`
	KeyContent       string           `mapstructure:"keyContent"`
	CAContent        string           `mapstructure:"caContent"`
	MinVersion       string           `mapstructure:"minVersion"`
	ClientAuthPolicy string           `mapstructure:"clientAuthPolicy"`
	AutoReload       AutoReloadConfig `mapstructure:"autoReload"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string          `mapstructure:"host"`
	Port            int             `mapstructure:"port"`
	ReadTimeout     time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration   `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdownTimeout"`
	MaxRequestSize  int64           `mapstructure:"maxRequestSize"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit"`
	TLS             TLSConfig       `mapstructure:"tls"`
}

// StorageConfig holds record and file storage settings
type StorageConfig struct {
	DatabaseDSN    string  `mapstructure:"databaseDsn"`
	UploadDir      string  `mapstructure:"uploadDir"`
	MaxUploadBytes int64   `mapstructure:"maxUploadBytes"`
	RasterDPI      float64 `mapstructure:"rasterDpi"`
}

// AuthConfig holds session settings
type AuthConfig struct {
	SigningKey    string        `mapstructure:"signingKey"`
	AccessKeys    []string      `mapstructure:"accessKeys"`
	SessionTTL    time.Duration `mapstructure:"sessionTtl"`
	SecureCookies bool          `mapstructure:"secureCookies"`
}

// UsageConfig holds the monthly review allowance
type UsageConfig struct {
	MonthlyAllowance int `mapstructure:"monthlyAllowance"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackCertExpiry bool `mapstructure:"trackCertExpiry"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// NormalizerConfig lets deployments override the fallback keyword rules
type NormalizerConfig struct {
	Categories map[string]feedback.CategoryRule `mapstructure:"categories"`
}

// Rules merges configured keyword overrides over the built-in defaults
func (n NormalizerConfig) Rules() feedback.Rules {
	rules := feedback.DefaultRules()
	for id, rule := range n.Categories {
		rules[feedback.CategoryID(id)] = rule
	}
	return rules
}

// LoadConfig reads configuration from files and the environment
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumind/")
	v.AddConfigPath("$HOME/.resumind")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RESUMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"failed to parse configuration", err)
	}

	cfg.applyOperationFallbacks()
	cfg.applyObservabilityFallbacks()

	if err := cfg.resolveVaultSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.loadPromptsFromFiles(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyOperationFallbacks fills unset per-operation AI settings from
// the global AI block
func (c *Config) applyOperationFallbacks() {
	op := &c.AI.Review
	if op.Provider == "" {
		op.Provider = c.AI.Provider
	}
	if op.Model == "" {
		op.Model = c.AI.Model
	}
	if op.APIKey == "" {
		op.APIKey = c.AI.APIKey
	}
	if op.Temperature == nil {
		op.Temperature = c.AI.Temperature
	}
	if op.Timeout == nil {
		op.Timeout = c.AI.Timeout
	}
	if op.MaxRetries == nil {
		op.MaxRetries = c.AI.MaxRetries
	}
	if op.UseSystemPrompts == nil {
		op.UseSystemPrompts = c.AI.UseSystemPrompts
	}
	if op.CustomPrompts.System == "" {
		op.CustomPrompts.System = c.AI.CustomPrompts.System
	}
	if op.CustomPrompts.SystemFile == "" {
		op.CustomPrompts.SystemFile = c.AI.CustomPrompts.SystemFile
	}
	if op.CustomPrompts.User == "" {
		op.CustomPrompts.User = c.AI.CustomPrompts.User
	}
	if op.CustomPrompts.UserFile == "" {
		op.CustomPrompts.UserFile = c.AI.CustomPrompts.UserFile
	}
	if !op.CircuitBreaker.Enabled && c.AI.CircuitBreaker.Enabled {
		op.CircuitBreaker = c.AI.CircuitBreaker
	}
}

// applyObservabilityFallbacks fills derived observability settings
func (c *Config) applyObservabilityFallbacks() {
	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}

	// Debug logging implies console exporters
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// GetReviewConfig returns the effective AI configuration for reviews
func (c *Config) GetReviewConfig() *OperationAIConfig {
	return &c.AI.Review
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid log level: %s", c.App.LogLevel), nil)
	}

	switch c.App.DefaultFormat {
	case "json", "text", "markdown", "html":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat), nil)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Storage.MaxUploadBytes <= 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"storage.maxUploadBytes must be positive", nil)
	}
	if c.Storage.RasterDPI <= 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"storage.rasterDpi must be positive", nil)
	}

	if c.Usage.MonthlyAllowance < 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"usage.monthlyAllowance cannot be negative", nil)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"invalid TLS configuration", err)
	}

	return nil
}
