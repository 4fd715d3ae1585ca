// Command katello-exporter exposes the status of a Katello server as
// Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/katello-exporter/katello-exporter/internal/collector"
	"github.com/katello-exporter/katello-exporter/internal/config"
	"github.com/katello-exporter/katello-exporter/internal/katello"
	"github.com/katello-exporter/katello-exporter/internal/web"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          "katello-exporter",
		Short:        "Export Katello host, task, subscription and service status to Prometheus",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, cmd.ErrOrStderr())
		},
	}
	addFlags(root.PersistentFlags())
	if err := bindFlags(v, root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve metrics over HTTP (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), v, cmd.ErrOrStderr())
			},
		},
		newDumpCmd(v),
	)
	return root
}

// setup loads the configuration, installs the process logger and builds the
// collector against the configured server.
func setup(v *viper.Viper, logOut io.Writer) (*config.Config, []config.Option, *collector.Collector, error) {
	cfg, opts, err := loadConfig(v)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := newLogger(logOut, v.GetString(keyLogFormat), cfg.Debug)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)

	client, err := katello.New(cfg.Katello, cfg.Debug)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := collector.New(client, collector.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, opts, c, nil
}

func runServe(ctx context.Context, v *viper.Viper, logOut io.Writer) error {
	cfg, opts, c, err := setup(v, logOut)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := c.Register(reg); err != nil {
		return err
	}

	if path := v.GetString(keyConfig); path != "" {
		go watchConfig(ctx, path, cfg, c, opts)
	}

	handler := web.New(reg, reg, web.Options{
		MetricsPath: cfg.Listen.MetricsPath,
		Server:      cfg.Katello.BaseURL(),
	})

	slog.Info(fmt.Sprintf("Polling %s. Serving at port %d", cfg.Katello.BaseURL(), cfg.Listen.Port),
		"metrics_path", cfg.Listen.MetricsPath)
	if err := web.Serve(ctx, cfg.Listen.Address(), handler); err != nil {
		slog.Error("katello-exporter: server stopped", "err", err)
		return err
	}
	slog.Info("katello-exporter: interrupted, shutting down")
	return nil
}

// watchConfig swaps the Katello client whenever the config file changes.
// Listen settings only apply on restart.
func watchConfig(ctx context.Context, path string, current *config.Config, c *collector.Collector, opts []config.Option) {
	err := config.Watch(ctx, path, func(updated *config.Config) {
		client, err := katello.New(updated.Katello, updated.Debug)
		if err != nil {
			slog.Error("config: reload rejected", "err", err)
			return
		}
		c.SetFetcher(client)
		slog.Info("config: hot-reloaded", "server", updated.Katello.BaseURL())
		if updated.Listen != current.Listen {
			slog.Warn("config: listen settings changed, restart to apply",
				"port", updated.Listen.Port, "metrics_path", updated.Listen.MetricsPath)
		}
	}, opts...)
	if err != nil {
		slog.Error("config: watcher stopped", "err", err)
	}
}
