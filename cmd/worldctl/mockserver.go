package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sumandas0/worldkit/internal/mockapi"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

func mockServerCmd(opts *rootOptions) *cobra.Command {
	var (
		seedPath string
		port     int
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory world API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				logger := a.logger.GetZerologLogger()
				serverConfig := a.cfg.MockServer
				if cmd.Flags().Changed("port") {
					serverConfig.Port = port
				}

				store := mockapi.NewStore()
				if seedPath != "" {
					seeded, err := seedStore(store, seedPath)
					if err != nil {
						return err
					}
					logger.Info().Int("elements", seeded).Str("file", seedPath).Msg("store seeded")
				}

				server := mockapi.NewServer(serverConfig,
					mockapi.WithLogger(a.logger),
					mockapi.WithMetrics(a.metrics),
					mockapi.WithStore(store),
				)

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				logger.Info().
					Str("address", serverConfig.Address()).
					Str("prefix", serverConfig.Prefix).
					Msg("mock world API listening")

				if err := server.ListenAndServe(ctx); err != nil {
					return err
				}
				logger.Info().Msg("mock world API stopped")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML file mapping element types to records")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on, overrides configuration")
	return cmd
}

// seedStore loads a YAML document of the form {type: [record, ...]}
func seedStore(store *mockapi.Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed map[string][]mockapi.Record
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	total := 0
	for elementType, records := range seed {
		if !sdk.IsElementType(elementType) {
			return 0, fmt.Errorf("seed file: unknown element type %q", elementType)
		}
		store.Seed(elementType, records...)
		total += len(records)
	}
	return total, nil
}
