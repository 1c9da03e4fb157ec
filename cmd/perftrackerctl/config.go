// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/newrelic/nrdot-perftracking-components/internal/monitor"
	"github.com/newrelic/nrdot-perftracking-components/internal/report"
)

//go:embed default.yaml
var defaultConfig []byte

// Config is the perftrackerctl configuration file.
type Config struct {
	Log          Logs           `mapstructure:"log"`
	PollInterval time.Duration  `mapstructure:"poll_interval"`
	Report       report.Options `mapstructure:"report"`
	Monitor      monitor.Config `mapstructure:"monitor"`
	Workload     Workload       `mapstructure:"workload"`
	Metrics      Metrics        `mapstructure:"metrics"`
}

type Logs struct {
	Level       zapcore.Level `mapstructure:"level"`
	OutputPaths []string      `mapstructure:"output_paths"`
}

// Workload describes the synthetic trackers recorded while no real host is
// attached.
type Workload struct {
	Interval time.Duration     `mapstructure:"interval"`
	Seed     uint64            `mapstructure:"seed"`
	Trackers []WorkloadTracker `mapstructure:"trackers"`
}

type WorkloadTracker struct {
	Name   string        `mapstructure:"name"`
	Mean   time.Duration `mapstructure:"mean"`
	Jitter time.Duration `mapstructure:"jitter"`
	// SpikeEvery makes one sample in SpikeEvery take Spike. Zero disables
	// spikes.
	SpikeEvery int           `mapstructure:"spike_every"`
	Spike      time.Duration `mapstructure:"spike"`
}

type Metrics struct {
	// Addr is the listen address of the Prometheus endpoint. Empty disables it.
	Addr string `mapstructure:"addr"`
}

// Load reads the embedded defaults and merges configFile over them when set.
func Load(configFile string) (Config, error) {
	k := koanf.New("::")
	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("loading default config: %w", err)
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	decodeConf := koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc()),
			ErrorUnused:      true,
			Result:           &cfg,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, decodeConf); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs error
	if c.PollInterval <= 0 {
		errs = multierr.Append(errs, errors.New("poll_interval must be positive"))
	}
	errs = multierr.Append(errs, c.Monitor.Validate())
	errs = multierr.Append(errs, c.Workload.Validate())
	return errs
}

func (w *Workload) Validate() error {
	var errs error
	if w.Interval <= 0 {
		errs = multierr.Append(errs, errors.New("workload.interval must be positive"))
	}
	for i, t := range w.Trackers {
		if t.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("workload.trackers[%d]: name must not be empty", i))
		}
		if t.Mean <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("workload.trackers[%d]: mean must be positive", i))
		}
		if t.Jitter < 0 || t.Jitter > t.Mean {
			errs = multierr.Append(errs, fmt.Errorf("workload.trackers[%d]: jitter must be within [0, mean]", i))
		}
		if t.SpikeEvery < 0 {
			errs = multierr.Append(errs, fmt.Errorf("workload.trackers[%d]: spike_every must not be negative", i))
		}
	}
	return errs
}
