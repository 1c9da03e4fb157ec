// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package perftrackerreceiver // import "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver"

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/multierr"

	"github.com/newrelic/nrdot-perftracking-components/internal/monitor"
	"github.com/newrelic/nrdot-perftracking-components/internal/report"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

const (
	defaultPollInterval       = 100 * time.Millisecond
	defaultCollectionInterval = 10 * time.Second
	defaultSpikeEntities      = `\.Paint$`
)

// Config defines the configuration for the perftracker receiver.
//
// Example configuration:
//
//	perftracker:
//	  poll_interval: 100ms
//	  collection_interval: 10s
//	  spike_entities: '\.Paint$'
//	  report:
//	    filter: '^Application\.'
//	    sort_by: avg_time
//	  resource_attributes:
//	    host.name: build-agent-1
//	  monitor:
//	    notifications_enabled: true
//	    spike_highlight_enabled: true
type Config struct {
	// Monitor configures notifications, spike highlighting and trend
	// detection. The collector validates it on its own.
	Monitor monitor.Config `mapstructure:"monitor"`

	// PollInterval is how often the monitors are given a chance to run.
	// Monitor.UpdateInterval still bounds how often a pass actually runs.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// CollectionInterval is how often the tracker report is emitted.
	CollectionInterval time.Duration `mapstructure:"collection_interval"`

	Report ReportConfig `mapstructure:"report"`

	// SpikeEntities selects the trackers driving spike highlights.
	SpikeEntities string `mapstructure:"spike_entities"`

	ResourceAttributes map[string]string `mapstructure:"resource_attributes"`
}

// ReportConfig selects the trackers emitted as metrics.
type ReportConfig struct {
	Filter        string         `mapstructure:"filter"`
	SortBy        tracker.Column `mapstructure:"sort_by"`
	SortAscending bool           `mapstructure:"sort_ascending"`
}

func (r ReportConfig) options() report.Options {
	return report.Options{
		Filter:        r.Filter,
		Sort:          true,
		SortBy:        r.SortBy,
		SortAscending: r.SortAscending,
	}.ShowAll()
}

// Validate checks the receiver level settings. Nested monitor settings are
// validated through monitor.Config.Validate.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.PollInterval <= 0 {
		errs = multierr.Append(errs, errors.New("poll_interval must be positive"))
	}
	if cfg.CollectionInterval <= 0 {
		errs = multierr.Append(errs, errors.New("collection_interval must be positive"))
	}
	if cfg.SpikeEntities == "" {
		errs = multierr.Append(errs, errors.New("spike_entities must not be empty"))
	} else if _, err := regexp.Compile(cfg.SpikeEntities); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid spike_entities %q: %w", cfg.SpikeEntities, err))
	}
	if cfg.Report.Filter != "" {
		if _, err := regexp.Compile("(?i)" + cfg.Report.Filter); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid report.filter %q: %w", cfg.Report.Filter, err))
		}
	}
	if _, ok := cfg.ResourceAttributes[attributeSessionID]; ok {
		errs = multierr.Append(errs, fmt.Errorf("resource_attributes must not set %q", attributeSessionID))
	}
	return errs
}
