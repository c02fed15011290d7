package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/config"
	"github.com/aretw0/relay/internal/demo"
	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/adapters/process"
	redisAdapter "github.com/aretw0/relay/pkg/adapters/redis"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app is the wiring shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	relay    *relay.Relay
	registry *registry.Registry
	metrics  *prometheus.Registry
	sink     *redisAdapter.Sink
}

// bootstrap loads configuration, applies flag overrides and builds the
// catalogue: configured process tools when present, the demo set otherwise.
func bootstrap(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("tools"); v != "" {
		cfg.Tools = v
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Format)
	slog.SetDefault(logger)

	batch, err := openai.ParseBatchMode(cfg.Batch)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: prometheus.NewRegistry()}

	metrics, err := observability.NewMetrics(a.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	tracers := []domain.Tracer{observability.NewLogTracer(logger), metrics}
	if cfg.Redis.URL != "" {
		sink, err := redisAdapter.New(cfg.Redis.URL,
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithMaxEvents(cfg.Redis.MaxEvents),
			redisAdapter.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		a.sink = sink
		tracers = append(tracers, sink)
	}
	tracer := observability.Redact(observability.Multi(tracers...), cfg.Redact...)

	a.relay = relay.New(
		relay.WithTracer(tracer),
		relay.WithDebug(cfg.Debug),
		relay.WithBatchMode(batch),
		relay.WithLogger(logger),
	)

	if err := a.install(); err != nil {
		a.close()
		return nil, err
	}
	reg, err := a.relay.Registry()
	if err != nil {
		a.close()
		return nil, err
	}
	a.registry = reg
	return a, nil
}

func (a *app) install() error {
	if a.cfg.Tools == "" {
		demo.Install(a.relay)
		return nil
	}
	tools, err := process.LoadTools(a.cfg.Tools)
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		a.logger.Warn("no process tools declared, serving the demo catalogue", "file", a.cfg.Tools)
		demo.Install(a.relay)
		return nil
	}
	dir := a.cfg.Workdir
	if dir == "" {
		dir = filepath.Dir(a.cfg.Tools)
	}
	c := process.NewRunner(process.WithBaseDir(dir)).Container("Shell", "Local commands", tools)
	a.relay.Add(registry.ContainerUnit(c))
	return nil
}

func (a *app) close() {
	if a.sink == nil {
		return
	}
	if err := a.sink.Close(); err != nil {
		a.logger.Warn("failed to close redis sink", "error", err)
	}
}

// recent returns the last traced events of a container when a sink is configured.
func (a *app) recent(ctx context.Context, container string, n int) ([]redisAdapter.Record, error) {
	if a.sink == nil {
		return nil, fmt.Errorf("no redis sink configured (set redis.url or RELAY_REDIS_URL)")
	}
	return a.sink.Recent(ctx, container, n)
}
