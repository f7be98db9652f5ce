package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumandas0/worldkit/config"
	"github.com/sumandas0/worldkit/internal/observability"
	"github.com/sumandas0/worldkit/internal/security"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

type rootOptions struct {
	configPath string
	output     string
}

// app holds the components a command needs, built from configuration
type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.MetricsManager
	tracing *observability.TracingManager
	client  *sdk.Client
	printer *printer
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	p, err := newPrinter(cmd.OutOrStdout(), opts.output)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	observability.SetGlobalLogger(logger)

	metrics := observability.NewMetricsManager(cfg.Metrics)
	metrics.SetBuildInfo(version, commit, buildTime)

	tracing, err := observability.NewTracingManager(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	clientOpts := append(cfg.ClientOptions(),
		sdk.WithLogger(logger.GetZerologLogger()),
		sdk.WithMetrics(metrics),
		sdk.WithTracing(tracing),
	)
	client, err := sdk.NewClient(cfg.API.BaseURL, cfg.Auth(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	p.sanitizer = security.NewTextSanitizer(cfg.Sanitizer)

	logger.WithOperation(cmd.Name()).Debug().
		Str("base_url", cfg.API.BaseURL).
		Bool("authenticated", client.Authenticated()).
		Msg("client ready")

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracing: tracing,
		client:  client,
		printer: p,
	}, nil
}

// Close flushes pending spans
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn().Msg("failed to flush traces")
	}
}

// run builds the app, runs fn and closes the app afterwards
func run(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
