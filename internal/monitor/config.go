// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package monitor // import "github.com/newrelic/nrdot-perftracking-components/internal/monitor"

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/newrelic/nrdot-perftracking-components/internal/notification"
	"github.com/newrelic/nrdot-perftracking-components/internal/spike"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config is the monitoring configuration.
//
// Example configuration:
//
//	notifications_enabled: true
//	notifications:
//	  - name: Application.Tick
//	    enabled: true
//	    threshold_ms: 500
//	spike_highlight_enabled: true
//	update_interval: 5s
//	spike_warning_threshold: 50ms
//	spike_critical_threshold: 100ms
//	spike_strategy: avg_time
type Config struct {
	NotificationsEnabled bool                `mapstructure:"notifications_enabled"`
	Notifications        []notification.Rule `mapstructure:"notifications"`

	SpikeHighlightEnabled   bool `mapstructure:"spike_highlight_enabled"`
	ElementHighlightEnabled bool `mapstructure:"element_highlight_enabled"`

	// UpdateInterval is the minimum time between two monitoring passes.
	UpdateInterval time.Duration `mapstructure:"update_interval"`

	SpikeWarningThreshold  time.Duration  `mapstructure:"spike_warning_threshold"`
	SpikeCriticalThreshold time.Duration  `mapstructure:"spike_critical_threshold"`
	SpikeDuration          time.Duration  `mapstructure:"spike_duration"`
	SpikeStrategy          spike.Strategy `mapstructure:"spike_strategy"`
	Theme                  string         `mapstructure:"theme"`

	Trend TrendConfig `mapstructure:"trend"`
}

// TrendConfig configures slowdown detection against recent history.
type TrendConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// HistorySize is the number of averages kept per tracker.
	HistorySize int `mapstructure:"history_size"`
	// ChangeThreshold is the percent increase over the history mean that
	// raises an anomaly.
	ChangeThreshold float64 `mapstructure:"change_threshold"`
	MinDataPoints   int     `mapstructure:"min_data_points"`
	Smoothing       float64 `mapstructure:"smoothing"`
}

// NewDefaultConfig returns the configuration of a fresh install: every
// monitor is off and the default notification rules are set.
func NewDefaultConfig() Config {
	return Config{
		Notifications:          notification.DefaultRules(),
		UpdateInterval:         5 * time.Second,
		SpikeWarningThreshold:  50 * time.Millisecond,
		SpikeCriticalThreshold: 100 * time.Millisecond,
		SpikeStrategy:          spike.StrategyAvgTime,
		Theme:                  ThemeDark,
		Trend: TrendConfig{
			HistorySize:     10,
			ChangeThreshold: 200,
			MinDataPoints:   3,
			Smoothing:       0.2,
		},
	}
}

// MonitoringNeeded reports whether any pass is enabled.
func (cfg *Config) MonitoringNeeded() bool {
	return cfg.NotificationsEnabled || cfg.SpikeHighlightEnabled || cfg.Trend.Enabled
}

// EnabledRules returns the enabled notification rules.
func (cfg *Config) EnabledRules() []notification.Rule {
	var rules []notification.Rule
	for _, r := range cfg.Notifications {
		if r.Enabled {
			rules = append(rules, r)
		}
	}
	return rules
}

// SpikeSettings converts the spike options for the detector.
func (cfg *Config) SpikeSettings() spike.Settings {
	return spike.Settings{
		WarningThreshold:  cfg.SpikeWarningThreshold.Seconds(),
		CriticalThreshold: cfg.SpikeCriticalThreshold.Seconds(),
		Duration:          cfg.SpikeDuration.Seconds(),
		Strategy:          cfg.SpikeStrategy,
		Palette:           spike.PaletteFor(cfg.Theme),
	}
}

// Validate checks the configuration for errors.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.UpdateInterval <= 0 {
		errs = multierr.Append(errs, errors.New("update_interval must be positive"))
	}
	if cfg.SpikeWarningThreshold <= 0 {
		errs = multierr.Append(errs, errors.New("spike_warning_threshold must be positive"))
	}
	if cfg.SpikeCriticalThreshold <= 0 {
		errs = multierr.Append(errs, errors.New("spike_critical_threshold must be positive"))
	}
	if cfg.SpikeCriticalThreshold < cfg.SpikeWarningThreshold {
		errs = multierr.Append(errs, fmt.Errorf("spike_critical_threshold (%v) must not be lower than spike_warning_threshold (%v)",
			cfg.SpikeCriticalThreshold, cfg.SpikeWarningThreshold))
	}
	if cfg.SpikeDuration < 0 {
		errs = multierr.Append(errs, errors.New("spike_duration must not be negative"))
	}
	if cfg.SpikeStrategy != spike.StrategyAvgTime && cfg.SpikeStrategy != spike.StrategyLastTime {
		errs = multierr.Append(errs, fmt.Errorf("unknown spike_strategy %d", int(cfg.SpikeStrategy)))
	}
	if cfg.Theme != ThemeDark && cfg.Theme != ThemeLight {
		errs = multierr.Append(errs, fmt.Errorf("theme must be %q or %q, got %q", ThemeDark, ThemeLight, cfg.Theme))
	}
	for _, r := range cfg.Notifications {
		errs = multierr.Append(errs, r.Validate())
	}
	if cfg.Trend.Enabled {
		errs = multierr.Append(errs, cfg.Trend.validate())
	}
	return errs
}

func (t *TrendConfig) validate() error {
	var errs error
	if t.HistorySize <= 0 {
		errs = multierr.Append(errs, errors.New("trend.history_size must be positive"))
	}
	if t.ChangeThreshold <= 0 {
		errs = multierr.Append(errs, errors.New("trend.change_threshold must be positive"))
	}
	if t.MinDataPoints <= 0 {
		errs = multierr.Append(errs, errors.New("trend.min_data_points must be positive"))
	}
	if t.Smoothing <= 0 || t.Smoothing > 1 {
		errs = multierr.Append(errs, errors.New("trend.smoothing must be within (0, 1]"))
	}
	return errs
}
