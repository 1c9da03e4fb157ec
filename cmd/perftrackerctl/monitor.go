// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/monitor"
	"github.com/newrelic/nrdot-perftracking-components/internal/report"
	"github.com/newrelic/nrdot-perftracking-components/internal/spike"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
	"github.com/newrelic/nrdot-perftracking-components/internal/trend"
)

const metricsShutdownTimeout = 5 * time.Second

type monitorFlags struct {
	duration      time.Duration
	metricsAddr   string
	notifications bool
	spikes        bool
	elements      bool
	trend         bool
	finalReport   bool
}

func newMonitorCommand(global *globalFlags) *cobra.Command {
	flags := &monitorFlags{}
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the workload and the monitors until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			flags.apply(cmd, &cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if flags.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flags.duration)
				defer cancel()
			}

			var out io.Writer
			if flags.finalReport {
				out = cmd.OutOrStdout()
			}
			return runMonitor(ctx, cfg, logger, out)
		},
	}
	cmd.Flags().DurationVar(&flags.duration, "duration", 0, "stop after this long; zero runs until interrupted")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "overrides metrics.addr, the Prometheus listen address")
	cmd.Flags().BoolVar(&flags.notifications, "notifications", true, "overrides monitor.notifications_enabled")
	cmd.Flags().BoolVar(&flags.spikes, "spikes", true, "overrides monitor.spike_highlight_enabled")
	cmd.Flags().BoolVar(&flags.elements, "elements", false, "overrides monitor.element_highlight_enabled")
	cmd.Flags().BoolVar(&flags.trend, "trend", false, "overrides monitor.trend.enabled")
	cmd.Flags().BoolVar(&flags.finalReport, "final-report", true, "print the tracker report on exit")
	return cmd
}

func (f *monitorFlags) apply(cmd *cobra.Command, cfg *Config) {
	fs := cmd.Flags()
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if fs.Changed("notifications") {
		cfg.Monitor.NotificationsEnabled = f.notifications
	}
	if fs.Changed("spikes") {
		cfg.Monitor.SpikeHighlightEnabled = f.spikes
	}
	if fs.Changed("elements") {
		cfg.Monitor.ElementHighlightEnabled = f.elements
	}
	if fs.Changed("trend") {
		cfg.Monitor.Trend.Enabled = f.trend
	}
}

// runMonitor drives the scheduler until ctx is done, then writes the final
// report to out when it is not nil.
func runMonitor(ctx context.Context, cfg Config, logger *zap.Logger, out io.Writer) error {
	reg := tracker.NewRegistry(tracker.WithCallstacks())
	sched := monitor.NewScheduler(reg, cfg.Monitor, spike.NewLogSink(logger.Named("spikes")), logger,
		monitor.WithSelfTiming(reg))
	var anomalies int
	sched.OnAnomaly(func(trend.Anomaly) { anomalies++ })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	w := newWorkload(cfg.Workload, reg, logger.Named("workload"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.run(ctx)
	}()

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           newMetricsHandler(reg),
			ReadHeaderTimeout: metricsShutdownTimeout,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Serving tracker metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	logger.Info("Monitoring started", zap.Duration("poll_interval", cfg.PollInterval))
	start := time.Now()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	passes := 0
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-ticker.C:
			if sched.Poll(time.Since(start).Seconds()) {
				passes++
			}
		}
	}

	if srv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to stop metrics endpoint", zap.Error(err))
		}
		cancelShutdown()
	}
	cancel()
	wg.Wait()
	sched.Spikes().RemoveAll()

	logger.Info("Monitoring stopped",
		zap.Int("passes", passes),
		zap.Int("recent_alerts", len(sched.Notifications().Recent())),
		zap.Int("trend_anomalies", anomalies))

	if out == nil {
		return nil
	}
	return writeTextReport(out, reg, cfg.Report, "")
}

func newMetricsHandler(reg *tracker.Registry) http.Handler {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		report.NewCollector(func() []tracker.Record {
			return tracker.Build(reg, nil, tracker.ColumnName, true, true)
		}),
		collectors.NewGoCollector(),
	)
	return promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg})
}
