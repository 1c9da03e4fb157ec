// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:          "perftrackerctl",
		Short:        "Print performance tracker reports and monitor trackers for slowdowns",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML file merged over the built-in defaults")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "overrides log.level (debug, info, warn, error)")

	cmd.AddCommand(newReportCommand(flags), newMonitorCommand(flags))
	return cmd
}

// load resolves the configuration and builds the logger.
func (f *globalFlags) load() (Config, *zap.Logger, error) {
	cfg, err := Load(f.configFile)
	if err != nil {
		return Config{}, nil, err
	}
	if f.logLevel != "" {
		lvl, err := zapcore.ParseLevel(f.logLevel)
		if err != nil {
			return Config{}, nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return Config{}, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, logger, nil
}
