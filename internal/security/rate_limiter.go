package security

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderAPIKey identifies the caller for per-key limits
const HeaderAPIKey = "API-Key"

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"omitempty,gt=0"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size" validate:"omitempty,min=1"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`

	KeyLimitEnabled      bool    `yaml:"key_limit_enabled" mapstructure:"key_limit_enabled"`
	KeyRequestsPerSecond float64 `yaml:"key_requests_per_second" mapstructure:"key_requests_per_second"`
	KeyBurstSize         int     `yaml:"key_burst_size" mapstructure:"key_burst_size"`
}

// RateLimiter throttles the fake world API globally and per API key
type RateLimiter struct {
	config        RateLimitConfig
	globalLimiter *rate.Limiter
	keyLimiters   map[string]*rateLimiterEntry
	mutex         sync.Mutex
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:      config,
		keyLimiters: make(map[string]*rateLimiterEntry),
		stopCleanup: make(chan struct{}),
	}

	if config.Enabled {
		rl.globalLimiter = rate.NewLimiter(
			rate.Limit(config.RequestsPerSecond),
			config.BurstSize,
		)

		if config.CleanupInterval > 0 {
			go rl.cleanupRoutine()
		}
	}

	return rl
}

func (rl *RateLimiter) Allow() bool {
	if !rl.config.Enabled || rl.globalLimiter == nil {
		return true
	}
	return rl.globalLimiter.Allow()
}

func (rl *RateLimiter) AllowKey(key string) bool {
	if !rl.config.Enabled || !rl.config.KeyLimitEnabled || key == "" {
		return true
	}
	return rl.getKeyLimiter(key).Allow()
}

func (rl *RateLimiter) getKeyLimiter(key string) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if entry, exists := rl.keyLimiters[key]; exists {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(
		rate.Limit(rl.config.KeyRequestsPerSecond),
		rl.config.KeyBurstSize,
	)

	rl.keyLimiters[key] = &rateLimiterEntry{
		limiter:  limiter,
		lastSeen: time.Now(),
	}

	return limiter
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-rl.config.CleanupInterval * 2)

	for key, entry := range rl.keyLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.keyLimiters, key)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *RateLimiter) IsEnabled() bool {
	return rl.config.Enabled
}

func (rl *RateLimiter) RateLimitMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			if !rl.Allow() {
				rl.sendRateLimitResponse(w, "global rate limit exceeded")
				return
			}

			if !rl.AllowKey(r.Header.Get(HeaderAPIKey)) {
				rl.sendRateLimitResponse(w, "API key rate limit exceeded")
				return
			}

			if rl.globalLimiter != nil {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(float64(rl.globalLimiter.Limit()), 'f', -1, 64))
				w.Header().Set("X-RateLimit-Burst", strconv.Itoa(rl.globalLimiter.Burst()))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) sendRateLimitResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(message))
}

// ClientIP returns the originating address of r
func ClientIP(r *http.Request) string {
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
