package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/sumandas0/worldkit/internal/mockapi"
	"github.com/sumandas0/worldkit/internal/observability"
	"github.com/sumandas0/worldkit/internal/resilience"
	"github.com/sumandas0/worldkit/internal/security"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

// EnvPrefix prefixes every environment override, e.g. WORLDKIT_API_KEY
const EnvPrefix = "WORLDKIT"

type Config struct {
	API            APIConfig                       `mapstructure:"api"`
	Logging        observability.LoggingConfig     `mapstructure:"logging"`
	Metrics        observability.MetricsConfig     `mapstructure:"metrics"`
	Tracing        observability.TracingConfig     `mapstructure:"tracing"`
	Retry          resilience.RetryConfig          `mapstructure:"retry"`
	CircuitBreaker resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      ClientRateLimitConfig           `mapstructure:"rate_limit"`
	Sanitizer      security.SanitizerConfig        `mapstructure:"sanitizer"`
	MockServer     mockapi.Config                  `mapstructure:"mock_server"`
	References     map[string]string               `mapstructure:"references" validate:"dive,keys,required,endkeys,element_type"`
	Environment    string                          `mapstructure:"environment"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Key       string        `mapstructure:"key"`
	Pin       string        `mapstructure:"pin"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"min=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ClientRateLimitConfig throttles outgoing requests. Zero disables it.
type ClientRateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`
	Burst             int     `mapstructure:"burst" validate:"min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("element_type", func(fl validator.FieldLevel) bool {
		return sdk.IsElementType(fl.Field().String())
	})
	return v
}

// LoadConfig reads configuration from configPath, or from worldkit.yaml in
// the working directory or ~/.worldkit when configPath is empty. A .env file
// in the working directory is loaded first; variables already set win.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("worldkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.worldkit/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", sdk.DefaultBaseURL)
	v.SetDefault("api.key", "")
	v.SetDefault("api.pin", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.user_agent", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "worldkit")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_url", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", observability.ServiceName)
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sample_rate", 1.0)

	fast := resilience.BackoffStrategies["fast"]
	v.SetDefault("retry.enabled", false)
	v.SetDefault("retry.max_attempts", fast.MaxAttempts)
	v.SetDefault("retry.initial_delay", fast.InitialDelay)
	v.SetDefault("retry.max_delay", fast.MaxDelay)
	v.SetDefault("retry.backoff_multiplier", fast.BackoffMultiplier)
	v.SetDefault("retry.jitter_enabled", fast.JitterEnabled)
	v.SetDefault("retry.jitter_factor", fast.JitterFactor)

	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", "0s")
	v.SetDefault("circuit_breaker.timeout", "30s")
	v.SetDefault("circuit_breaker.failure_threshold", 5)

	v.SetDefault("rate_limit.requests_per_second", 0)
	v.SetDefault("rate_limit.burst", 1)

	sanitizer := security.DefaultSanitizerConfig()
	v.SetDefault("sanitizer.enabled", sanitizer.Enabled)
	v.SetDefault("sanitizer.max_string_length", sanitizer.MaxStringLength)
	v.SetDefault("sanitizer.max_array_length", sanitizer.MaxArrayLength)
	v.SetDefault("sanitizer.max_object_depth", sanitizer.MaxObjectDepth)

	mock := mockapi.DefaultConfig()
	v.SetDefault("mock_server.host", mock.Host)
	v.SetDefault("mock_server.port", mock.Port)
	v.SetDefault("mock_server.prefix", "/api/worldapi")
	v.SetDefault("mock_server.api_key", "")
	v.SetDefault("mock_server.api_pin", "")
	v.SetDefault("mock_server.read_timeout", mock.ReadTimeout)
	v.SetDefault("mock_server.write_timeout", mock.WriteTimeout)
	v.SetDefault("mock_server.shutdown_timeout", mock.ShutdownTimeout)
	v.SetDefault("mock_server.allowed_origins", mock.AllowedOrigins)
	v.SetDefault("mock_server.rate_limit.enabled", false)
	v.SetDefault("mock_server.rate_limit.requests_per_second", 50)
	v.SetDefault("mock_server.rate_limit.burst_size", 100)
	v.SetDefault("mock_server.rate_limit.cleanup_interval", "1m")
	v.SetDefault("mock_server.rate_limit.key_limit_enabled", false)
	v.SetDefault("mock_server.rate_limit.key_requests_per_second", 10)
	v.SetDefault("mock_server.rate_limit.key_burst_size", 20)

	v.SetDefault("environment", "development")
}

// Validate checks field constraints and that reference targets name known
// element types
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// ClientOptions translates the ambient sections into client options
func (c *Config) ClientOptions() []sdk.ClientOption {
	opts := []sdk.ClientOption{
		sdk.WithRetry(c.Retry),
		sdk.WithCircuitBreaker(c.CircuitBreaker),
		sdk.WithUserAgent(c.API.UserAgent),
	}
	if c.API.Timeout > 0 {
		opts = append(opts, sdk.WithTimeout(c.API.Timeout))
	}
	if c.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, sdk.WithRateLimit(c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}
	if len(c.References) > 0 {
		opts = append(opts, sdk.WithReferenceTable(sdk.ReferenceTable(c.References)))
	}
	return opts
}

// Auth returns the credentials configured for the world API
func (c *Config) Auth() sdk.KeyAuth {
	return sdk.KeyAuth{Key: c.API.Key, Pin: c.API.Pin}
}
