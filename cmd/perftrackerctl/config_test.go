// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/newrelic/nrdot-perftracking-components/internal/monitor"
	"github.com/newrelic/nrdot-perftracking-components/internal/spike"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perftracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, zapcore.InfoLevel, cfg.Log.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.Report.Sort)
	assert.True(t, cfg.Report.SortAscending)
	assert.Equal(t, tracker.ColumnName, cfg.Report.SortBy)

	want := monitor.NewDefaultConfig()
	want.NotificationsEnabled = true
	want.SpikeHighlightEnabled = true
	want.UpdateInterval = time.Second
	assert.Equal(t, want, cfg.Monitor)

	assert.Len(t, cfg.Workload.Trackers, 4)
	assert.Equal(t, 20*time.Millisecond, cfg.Workload.Interval)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
report:
  sort_by: peak_time
  sort_ascending: false
monitor:
  spike_strategy: last_time
  spike_duration: 2s
  theme: light
  notifications:
    - name: SceneView.Paint
      enabled: true
      threshold_ms: 16
workload:
  trackers:
    - name: Application.Tick
      mean: 10ms
metrics:
  addr: 127.0.0.1:9464
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, zapcore.DebugLevel, cfg.Log.Level)
	assert.Equal(t, tracker.ColumnPeakTime, cfg.Report.SortBy)
	assert.False(t, cfg.Report.SortAscending)
	assert.True(t, cfg.Report.ShowPeak)
	assert.Equal(t, spike.StrategyLastTime, cfg.Monitor.SpikeStrategy)
	assert.Equal(t, 2*time.Second, cfg.Monitor.SpikeDuration)
	assert.Equal(t, monitor.ThemeLight, cfg.Monitor.Theme)
	require.Len(t, cfg.Monitor.Notifications, 1)
	assert.InDelta(t, 16, cfg.Monitor.Notifications[0].ThresholdMs, 1e-12)
	require.Len(t, cfg.Workload.Trackers, 1)
	assert.Equal(t, 10*time.Millisecond, cfg.Workload.Trackers[0].Mean)
	assert.Equal(t, 20*time.Millisecond, cfg.Workload.Interval)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "unknown key", content: "monitor:\n  spikes: true\n", errMsg: "decoding config"},
		{name: "unknown column", content: "report:\n  sort_by: color\n", errMsg: "unknown tracker column"},
		{name: "unknown strategy", content: "monitor:\n  spike_strategy: fastest\n", errMsg: "unknown spike strategy"},
		{name: "invalid yaml", content: "monitor: [", errMsg: "loading config file"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "loading config file")
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.PollInterval = 0
	cfg.Monitor.UpdateInterval = 0
	cfg.Workload.Interval = 0
	cfg.Workload.Trackers = []WorkloadTracker{
		{Name: "", Mean: time.Millisecond},
		{Name: "B", Mean: time.Millisecond, Jitter: 2 * time.Millisecond, SpikeEvery: -1},
	}
	errs := multierr.Errors(cfg.Validate())
	assert.Len(t, errs, 6)
}
