// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package perftrackerreceiver // import "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver"

import (
	"context"
	"fmt"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/receiver"

	"github.com/newrelic/nrdot-perftracking-components/internal/monitor"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
	"github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver/internal/metadata"
)

// FactoryOption configures the factory.
type FactoryOption func(*factory)

// WithSource makes every receiver of the factory monitor src. When src is a
// *tracker.Registry the monitoring passes are timed into it as well.
func WithSource(src tracker.Source) FactoryOption {
	return func(f *factory) { f.src = src }
}

type factory struct {
	src tracker.Source
}

// NewFactory creates the receiver.Factory used by the Collector to construct
// this receiver. Without WithSource the receivers monitor a registry owned by
// the factory.
func NewFactory(opts ...FactoryOption) receiver.Factory {
	f := &factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.src == nil {
		f.src = tracker.NewRegistry(tracker.WithCallstacks())
	}
	return receiver.NewFactory(
		metadata.Type,
		createDefaultConfig,
		receiver.WithMetrics(f.createMetricsReceiver, metadata.MetricsStability),
	)
}

// createDefaultConfig returns the default configuration for this receiver.
func createDefaultConfig() component.Config {
	return &Config{
		Monitor:            monitor.NewDefaultConfig(),
		PollInterval:       defaultPollInterval,
		CollectionInterval: defaultCollectionInterval,
		Report: ReportConfig{
			SortBy: tracker.ColumnName,
		},
		SpikeEntities: defaultSpikeEntities,
	}
}

func (f *factory) createMetricsReceiver(
	_ context.Context,
	set receiver.Settings,
	cfg component.Config,
	nextConsumer consumer.Metrics,
) (receiver.Metrics, error) {
	rCfg, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type: expected *Config, got %T", cfg)
	}
	return newPerfTrackerReceiver(rCfg, set, f.src, nextConsumer)
}
