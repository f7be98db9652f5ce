package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sumandas0/worldkit/internal/health"
	"github.com/sumandas0/worldkit/internal/observability"
	"github.com/sumandas0/worldkit/internal/security"
)

type Config struct {
	Host            string                   `mapstructure:"host" validate:"required"`
	Port            int                      `mapstructure:"port" validate:"min=0,max=65535"`
	Prefix          string                   `mapstructure:"prefix"`
	APIKey          string                   `mapstructure:"api_key"`
	APIPin          string                   `mapstructure:"api_pin"`
	ReadTimeout     time.Duration            `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration            `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration            `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string                 `mapstructure:"allowed_origins"`
	RateLimit       security.RateLimitConfig `mapstructure:"rate_limit"`
}

func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8787,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowedOrigins:  []string{"*"},
	}
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server is an in-memory stand-in for the world API
type Server struct {
	config  Config
	store   *Store
	logger  *observability.Logger
	metrics *observability.MetricsManager
	limiter *security.RateLimiter
	journal *Journal
	health  *health.Checker
}

type Option func(*Server)

func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMetrics(metrics *observability.MetricsManager) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

func WithStore(store *Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

func NewServer(config Config, opts ...Option) *Server {
	s := &Server{
		config:  config,
		store:   NewStore(),
		journal: NewJournal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = security.NewRateLimiter(config.RateLimit)
	s.health = health.NewChecker(5 * time.Second)
	s.health.RegisterComponent("store", health.CountsCheck(s.store.Counts))
	return s
}

func (s *Server) Store() *Store {
	return s.store
}

// Health returns the checker behind GET /health
func (s *Server) Health() *health.Checker {
	return s.health
}

// Journal records every request the server received
func (s *Server) Journal() *Journal {
	return s.journal
}

// Handler returns the HTTP handler serving the API routes
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(s.journal.Middleware())
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	if s.logger != nil {
		router.Use(s.logger.LoggingMiddleware())
	}
	router.Use(s.metrics.MetricsMiddleware())
	router.Use(chiMiddleware.StripSlashes)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", security.HeaderAPIKey, "API-Pin"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", s.health.Handler())
	if s.metrics.IsEnabled() {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	mount := func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.limiter.RateLimitMiddleware())

		r.Route("/{elementType}", func(typeRouter chi.Router) {
			typeRouter.Use(s.requireKnownType)
			typeRouter.Get("/", s.listElements)
			typeRouter.Post("/", s.createElement)

			typeRouter.Route("/{elementID}", func(idRouter chi.Router) {
				idRouter.Get("/", s.getElement)
				idRouter.Put("/", s.replaceElement)
				idRouter.Delete("/", s.deleteElement)
			})
		})
	}

	if s.config.Prefix != "" && s.config.Prefix != "/" {
		router.Route(s.config.Prefix, mount)
	} else {
		router.Group(mount)
	}

	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.config.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	defer s.limiter.Stop()

	serverChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverChan <- fmt.Errorf("server failed to start: %w", err)
		}
		close(serverChan)
	}()

	select {
	case err := <-serverChan:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
