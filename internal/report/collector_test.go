// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

func TestCollector(t *testing.T) {
	records := []tracker.Record{
		{Sample: tracker.Sample{Name: "Application.Tick", SampleCount: 4, PeakTime: 0.5, AvgTime: 0.25, TotalTime: 1, Usage: 80}},
		{Sample: tracker.Sample{Name: "Foo.Paint", SampleCount: 1, PeakTime: 0.25, AvgTime: 0.25, TotalTime: 0.25, Usage: 20}},
	}
	c := NewCollector(func() []tracker.Record { return records })

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	assert.Equal(t, 10, testutil.CollectAndCount(c))

	expected := `
# HELP perftracker_avg_seconds Average sample time of the tracker.
# TYPE perftracker_avg_seconds gauge
perftracker_avg_seconds{tracker="Application.Tick"} 0.25
perftracker_avg_seconds{tracker="Foo.Paint"} 0.25
# HELP perftracker_usage_percent Share of all tracked time spent in the tracker.
# TYPE perftracker_usage_percent gauge
perftracker_usage_percent{tracker="Application.Tick"} 80
perftracker_usage_percent{tracker="Foo.Paint"} 20
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"perftracker_avg_seconds", "perftracker_usage_percent"))
}

func TestCollectorEmptySnapshot(t *testing.T) {
	c := NewCollector(func() []tracker.Record { return nil })
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
