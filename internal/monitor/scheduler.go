// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package monitor drives notifications, spike highlighting and trend
// detection from a single host-driven poll.
package monitor // import "github.com/newrelic/nrdot-perftracking-components/internal/monitor"

import (
	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/notification"
	"github.com/newrelic/nrdot-perftracking-components/internal/spike"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
	"github.com/newrelic/nrdot-perftracking-components/internal/trend"
)

// Trackers timing the monitoring passes themselves.
const (
	NotificationsMarker = "Tracker.PerformNotifications"
	SpikeMarker         = "Tracker.PerformSpikeWindowHighlight"
	TrendMarker         = "Tracker.PerformTrendCheck"
)

// DefaultEntityParent is the surface headless highlights attach to.
const DefaultEntityParent = "host"

// EntityProvider lists the entities to highlight given the live tracker names.
type EntityProvider interface {
	Entities(names []string) []spike.Entity
}

// EntityProviderFunc adapts a func to EntityProvider.
type EntityProviderFunc func(names []string) []spike.Entity

func (f EntityProviderFunc) Entities(names []string) []spike.Entity { return f(names) }

// PaintMarkerEntities highlights every window paint marker.
var PaintMarkerEntities = EntityProviderFunc(func(names []string) []spike.Entity {
	return spike.EntitiesFromTrackers(names, nil, DefaultEntityParent)
})

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithEntityProvider sets the entities handed to spike detection. Defaults to
// PaintMarkerEntities.
func WithEntityProvider(p EntityProvider) Option {
	return func(s *Scheduler) { s.entities = p }
}

// WithSelfTiming records the duration of every pass into reg.
func WithSelfTiming(reg *tracker.Registry) Option {
	return func(s *Scheduler) { s.self = reg }
}

// WithNotificationOptions forwards options to the notification engine.
func WithNotificationOptions(opts ...notification.Option) Option {
	return func(s *Scheduler) { s.notificationOpts = append(s.notificationOpts, opts...) }
}

// Scheduler owns the monitoring state of one session. It is not safe for
// concurrent use; the host calls Poll from its update loop.
type Scheduler struct {
	src    tracker.Source
	cfg    Config
	logger *zap.Logger

	notifications    *notification.Engine
	notificationOpts []notification.Option
	spikes           *spike.Detector
	trend            *trend.Detector
	snapshots        *tracker.Snapshotter

	entities EntityProvider
	self     *tracker.Registry

	anomalyObservers []func(trend.Anomaly)
	nextCheck        float64
}

func NewScheduler(src tracker.Source, cfg Config, sink spike.Sink, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = spike.NewLogSink(logger)
	}
	s := &Scheduler{
		src:       src,
		cfg:       cfg,
		logger:    logger,
		snapshots: tracker.NewSnapshotter(src),
		entities:  PaintMarkerEntities,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.notifications = notification.NewEngine(src, cfg.Notifications, logger.Named("notifications"), s.notificationOpts...)
	s.spikes = spike.NewDetector(src, sink, cfg.SpikeSettings(), logger.Named("spikes"))
	s.trend = trend.NewDetector(cfg.Trend.HistorySize, cfg.Trend.ChangeThreshold, cfg.Trend.MinDataPoints,
		cfg.Trend.Smoothing, logger.Named("trend"))

	logger.Info("Monitoring scheduler created",
		zap.Bool("notifications_enabled", cfg.NotificationsEnabled),
		zap.Int("notification_rules", len(cfg.Notifications)),
		zap.Int("enabled_notification_rules", len(cfg.EnabledRules())),
		zap.Bool("spike_highlight_enabled", cfg.SpikeHighlightEnabled),
		zap.Bool("element_highlight_enabled", cfg.ElementHighlightEnabled),
		zap.Bool("trend_enabled", cfg.Trend.Enabled),
		zap.Duration("update_interval", cfg.UpdateInterval),
		zap.String("spike_strategy", cfg.SpikeStrategy.String()))
	return s
}

func (s *Scheduler) Config() Config                       { return s.cfg }
func (s *Scheduler) Notifications() *notification.Engine { return s.notifications }
func (s *Scheduler) Spikes() *spike.Detector              { return s.spikes }
func (s *Scheduler) Trend() *trend.Detector               { return s.trend }

// NextCheck returns the earliest time, in seconds, the next pass runs.
func (s *Scheduler) NextCheck() float64 { return s.nextCheck }

// OnAnomaly registers fn to be called with every trend anomaly.
func (s *Scheduler) OnAnomaly(fn func(trend.Anomaly)) {
	s.anomalyObservers = append(s.anomalyObservers, fn)
}

// Poll runs the enabled passes when now, in seconds, reached the next check
// and reports whether it did. Notifications run before spike highlighting.
func (s *Scheduler) Poll(now float64) bool {
	if !s.cfg.MonitoringNeeded() || now < s.nextCheck {
		return false
	}

	names := s.src.Available()
	if s.cfg.NotificationsEnabled {
		s.timed(NotificationsMarker, func() {
			s.notifications.Check(now, names)
		})
	}
	if s.cfg.SpikeHighlightEnabled {
		s.timed(SpikeMarker, func() {
			s.spikes.Update(now, s.spikeEntities(names))
		})
	}
	if s.cfg.Trend.Enabled {
		s.timed(TrendMarker, func() {
			s.checkTrends(names)
		})
	}

	s.nextCheck = now + s.cfg.UpdateInterval.Seconds()
	s.logger.Debug("Monitoring pass done",
		zap.Float64("now", now),
		zap.Int("trackers", len(names)),
		zap.Int("spike_entities", s.spikes.Len()),
		zap.Float64("next_check", s.nextCheck))
	return true
}

func (s *Scheduler) timed(marker string, fn func()) {
	if s.self == nil {
		fn()
		return
	}
	stop := s.self.Start(marker)
	fn()
	stop()
}

func (s *Scheduler) spikeEntities(names []string) []spike.Entity {
	entities := s.entities.Entities(names)
	if s.cfg.ElementHighlightEnabled {
		return entities
	}
	filtered := entities[:0:0]
	for _, e := range entities {
		if e.Kind != spike.KindElement {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (s *Scheduler) checkTrends(names []string) {
	records := s.snapshots.Refresh(tracker.ColumnName, true, false)
	for _, a := range s.trend.Observe(records) {
		s.logger.Warn(a.Reason,
			zap.String("tracker", a.Tracker),
			zap.Float64("avg_time", a.Value),
			zap.Float64("history_mean", a.Mean),
			zap.Float64("percent_change", a.PercentChange))
		for _, fn := range s.anomalyObservers {
			fn(a)
		}
	}
	s.trend.Forget(names)
}

// ApplyConfig swaps the configuration. Highlights are torn down when spike
// or element highlighting gets disabled.
func (s *Scheduler) ApplyConfig(cfg Config) {
	s.cfg = cfg
	s.notifications.SetRules(cfg.Notifications)
	s.spikes.SetSettings(cfg.SpikeSettings())
	s.trend.HistorySize = cfg.Trend.HistorySize
	s.trend.ChangeThreshold = cfg.Trend.ChangeThreshold
	s.trend.MinDataPoints = cfg.Trend.MinDataPoints
	s.trend.Smoothing = cfg.Trend.Smoothing

	switch {
	case !cfg.SpikeHighlightEnabled:
		s.spikes.RemoveAll()
	case !cfg.ElementHighlightEnabled:
		s.spikes.RemoveKind(spike.KindElement)
	}

	s.logger.Info("Monitoring configuration applied",
		zap.Bool("notifications_enabled", cfg.NotificationsEnabled),
		zap.Bool("spike_highlight_enabled", cfg.SpikeHighlightEnabled),
		zap.Bool("element_highlight_enabled", cfg.ElementHighlightEnabled),
		zap.Bool("trend_enabled", cfg.Trend.Enabled))
}
