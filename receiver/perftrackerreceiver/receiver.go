// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package perftrackerreceiver // import "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver"

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/receiver"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/monitor"
	"github.com/newrelic/nrdot-perftracking-components/internal/notification"
	"github.com/newrelic/nrdot-perftracking-components/internal/report"
	"github.com/newrelic/nrdot-perftracking-components/internal/spike"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
	"github.com/newrelic/nrdot-perftracking-components/internal/trend"
	"github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver/internal/metadata"
)

const attributeSessionID = "perftracker.session.id"

// perfTrackerReceiver is the host loop of the monitors: one goroutine polls
// the scheduler and periodically emits the tracker report.
type perfTrackerReceiver struct {
	cfg          *Config
	logger       *zap.Logger
	src          tracker.Source
	nextConsumer consumer.Metrics

	scheduler *monitor.Scheduler
	resource  map[string]string

	alerts    metric.Int64Counter
	spikes    metric.Int64Counter
	anomalies metric.Int64Counter

	now     func() time.Time
	started time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newPerfTrackerReceiver(cfg *Config, set receiver.Settings, src tracker.Source, nextConsumer consumer.Metrics) (*perfTrackerReceiver, error) {
	pattern, err := regexp.Compile(cfg.SpikeEntities)
	if err != nil {
		return nil, fmt.Errorf("invalid spike_entities %q: %w", cfg.SpikeEntities, err)
	}

	r := &perfTrackerReceiver{
		cfg:          cfg,
		logger:       set.Logger,
		src:          src,
		nextConsumer: nextConsumer,
		now:          time.Now,
	}
	if err := r.initTelemetry(set.TelemetrySettings.MeterProvider.Meter(metadata.ScopeName)); err != nil {
		return nil, err
	}

	r.resource = make(map[string]string, len(cfg.ResourceAttributes)+1)
	maps.Copy(r.resource, cfg.ResourceAttributes)
	r.resource[attributeSessionID] = uuid.NewString()

	opts := []monitor.Option{
		monitor.WithEntityProvider(monitor.EntityProviderFunc(func(names []string) []spike.Entity {
			return spike.EntitiesFromTrackers(names, pattern, monitor.DefaultEntityParent)
		})),
	}
	if reg, ok := src.(*tracker.Registry); ok {
		opts = append(opts, monitor.WithSelfTiming(reg))
	}
	sink := spike.MultiSink{spike.NewLogSink(r.logger), countingSink{r}}
	r.scheduler = monitor.NewScheduler(src, cfg.Monitor, sink, r.logger, opts...)
	r.scheduler.Notifications().OnAlert(r.onAlert)
	r.scheduler.OnAnomaly(r.onAnomaly)
	return r, nil
}

func (r *perfTrackerReceiver) initTelemetry(meter metric.Meter) error {
	var err, errs error
	r.alerts, err = meter.Int64Counter("otelcol_receiver_perftracker_alerts",
		metric.WithDescription("Number of slow tracker notifications raised."),
		metric.WithUnit("{alert}"))
	errs = multierr.Append(errs, err)
	r.spikes, err = meter.Int64Counter("otelcol_receiver_perftracker_spikes",
		metric.WithDescription("Number of spike highlight paints, fade steps included."),
		metric.WithUnit("{spike}"))
	errs = multierr.Append(errs, err)
	r.anomalies, err = meter.Int64Counter("otelcol_receiver_perftracker_trend_anomalies",
		metric.WithDescription("Number of tracker slowdowns found against recent history."),
		metric.WithUnit("{anomaly}"))
	errs = multierr.Append(errs, err)
	return errs
}

// Start is invoked during service startup.
func (r *perfTrackerReceiver) Start(_ context.Context, _ component.Host) error {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.started = r.now()

	r.logger.Info("Starting perftracker receiver",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Duration("collection_interval", r.cfg.CollectionInterval),
		zap.String("session_id", r.resource[attributeSessionID]))

	r.wg.Add(1)
	go r.run(ctx)
	return nil
}

// Shutdown is invoked during service shutdown.
func (r *perfTrackerReceiver) Shutdown(_ context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	r.wg.Wait()
	r.scheduler.Spikes().RemoveAll()
	r.logger.Info("Shut down perftracker receiver")
	return nil
}

func (r *perfTrackerReceiver) run(ctx context.Context) {
	defer r.wg.Done()

	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	collect := time.NewTicker(r.cfg.CollectionInterval)
	defer collect.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			r.poll()
		case <-collect.C:
			if err := r.collect(ctx); err != nil {
				r.logger.Error("Failed to emit tracker report", zap.Error(err))
			}
		}
	}
}

func (r *perfTrackerReceiver) elapsed() float64 {
	return r.now().Sub(r.started).Seconds()
}

func (r *perfTrackerReceiver) poll() bool {
	return r.scheduler.Poll(r.elapsed())
}

// collect emits the current report. Nothing is sent while no tracker matches.
func (r *perfTrackerReceiver) collect(ctx context.Context) error {
	rep, err := report.GenerateFromSource(r.src, r.cfg.Report.options())
	if err != nil {
		return err
	}
	if len(rep.Trackers) == 0 {
		r.logger.Debug("No tracker to report")
		return nil
	}
	md := report.ToMetrics(rep, r.resource, r.now())
	r.logger.Debug("Emitting tracker report",
		zap.Int("trackers", len(rep.Trackers)),
		zap.Int("data_points", md.DataPointCount()))
	return r.nextConsumer.ConsumeMetrics(ctx, md)
}

func (r *perfTrackerReceiver) onAlert(a notification.Alert) {
	r.alerts.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(report.AttributeTrackerName, a.Tracker),
		attribute.String("rule", a.Rule)))
}

func (r *perfTrackerReceiver) onAnomaly(a trend.Anomaly) {
	r.anomalies.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(report.AttributeTrackerName, a.Tracker)))
}

// countingSink counts applied highlights. Clears are not counted.
type countingSink struct {
	r *perfTrackerReceiver
}

func (s countingSink) ApplyHighlight(id string, _ spike.Color) {
	s.r.spikes.Add(context.Background(), 1, metric.WithAttributes(attribute.String("entity", id)))
}

func (countingSink) ClearHighlight(string) {}
