package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

type RetryConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts       int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"omitempty,min=1"`
	InitialDelay      time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	JitterEnabled     bool          `yaml:"jitter_enabled" mapstructure:"jitter_enabled"`
	JitterFactor      float64       `yaml:"jitter_factor" mapstructure:"jitter_factor"`
}

type RetryStrategy string

const (
	StrategyExponential RetryStrategy = "exponential"
	StrategyLinear      RetryStrategy = "linear"
	StrategyFixed       RetryStrategy = "fixed"
)

type RetryManager struct {
	config   RetryConfig
	strategy RetryStrategy
}

func NewRetryManager(config RetryConfig, strategy RetryStrategy) *RetryManager {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &RetryManager{
		config:   config,
		strategy: strategy,
	}
}

type IsRetryableError func(error) bool

// TransportRetryableErrors treats connection-level failures as retryable.
// HTTP status failures never reach this check.
func TransportRetryableErrors(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := err.Error()
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"EOF",
		"timeout",
		"temporary failure",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Execute runs fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done.
func (rm *RetryManager) Execute(ctx context.Context, fn func() error, isRetryable IsRetryableError) error {
	if !rm.IsEnabled() {
		return fn()
	}

	var lastErr error

	for attempt := 1; attempt <= rm.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt == rm.config.MaxAttempts {
			break
		}

		delay := rm.calculateDelay(attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", rm.config.MaxAttempts, lastErr)
}

func (rm *RetryManager) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch rm.strategy {
	case StrategyLinear:
		delay = time.Duration(int64(rm.config.InitialDelay) * int64(attempt))
	case StrategyFixed:
		delay = rm.config.InitialDelay
	default:
		multiplier := math.Pow(rm.config.BackoffMultiplier, float64(attempt-1))
		delay = time.Duration(float64(rm.config.InitialDelay) * multiplier)
	}

	if rm.config.JitterEnabled {
		delay = rm.applyJitter(delay)
	}

	if rm.config.MaxDelay > 0 && delay > rm.config.MaxDelay {
		delay = rm.config.MaxDelay
	}

	return delay
}

func (rm *RetryManager) applyJitter(delay time.Duration) time.Duration {
	if rm.config.JitterFactor <= 0 || rm.config.JitterFactor >= 1 {
		return delay
	}

	jitter := rm.config.JitterFactor * float64(delay)
	randomJitter := (rand.Float64()*2 - 1) * jitter

	finalDelay := time.Duration(float64(delay) + randomJitter)
	if finalDelay < 0 {
		finalDelay = time.Duration(float64(delay) * 0.1)
	}

	return finalDelay
}

func (rm *RetryManager) IsEnabled() bool {
	return rm != nil && rm.config.Enabled
}

var BackoffStrategies = map[string]RetryConfig{
	"fast": {
		Enabled:           true,
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          1 * time.Second,
		BackoffMultiplier: 2.0,
		JitterEnabled:     true,
		JitterFactor:      0.1,
	},
	"standard": {
		Enabled:           true,
		MaxAttempts:       5,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		JitterEnabled:     true,
		JitterFactor:      0.2,
	},
}
