package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/presentation/tui"
	httpAdapter "github.com/aretw0/relay/pkg/adapters/http"
	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the catalogue over HTTP: tool listing, tool-call batches, direct invocation, OpenAPI and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		batch, _ := openai.ParseBatchMode(a.cfg.Batch)

		opts := []httpAdapter.Option{
			httpAdapter.WithBatchMode(batch),
			httpAdapter.WithLogger(a.logger),
			httpAdapter.WithInfo("relay", relay.Version),
		}
		if a.cfg.Server.Metrics {
			opts = append(opts, httpAdapter.WithMetrics(a.metrics))
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           httpAdapter.NewHandler(a.registry, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr(), relay.Version)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("starting relay server", "addr", srv.Addr, "functions", len(a.registry.Functions()))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			a.logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			a.logger.Info("relay server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
