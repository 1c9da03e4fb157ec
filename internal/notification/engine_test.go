// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
	"github.com/newrelic/nrdot-perftracking-components/internal/trackertest"
)

const tick = "Application.Tick"

func setAvg(src *trackertest.FakeSource, name string, avg float64) {
	src.Update(name, func(s *tracker.Sample) { s.AvgTime = avg })
}

func TestEngineRatchetsAndFlushes(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: tick})
	core, logs := observer.New(zapcore.InfoLevel)
	e := NewEngine(src, []Rule{{Name: "Application.Tick", Enabled: true, ThresholdMs: 500}}, zap.New(core))
	names := src.Available()

	steps := []struct {
		name  string
		now   float64
		avg   float64
		alert bool
	}{
		{name: "first breach alerts", now: 1, avg: 0.6, alert: true},
		{name: "below ratchet is quiet", now: 6, avg: 0.55, alert: false},
		{name: "above ratchet alerts again", now: 11, avg: 0.65, alert: true},
		{name: "ratchet moved to latest average", now: 16, avg: 0.64, alert: false},
		{name: "cache flush restores configured threshold", now: 62, avg: 0.52, alert: true},
	}

	for _, step := range steps {
		setAvg(src, tick, step.avg)
		alerts := e.Check(step.now, names)
		if step.alert {
			require.Len(t, alerts, 1, step.name)
			assert.InDelta(t, step.avg, alerts[0].Average, 1e-12, step.name)
		} else {
			assert.Empty(t, alerts, step.name)
		}
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).AllUntimed()
	require.Len(t, warnings, 3)
	assert.Equal(t, "Application.Tick is slower than expected (600.0 ms > 500.0 ms)", warnings[0].Message)
	assert.Equal(t, "Application.Tick is slower than expected (650.0 ms > 500.0 ms)", warnings[1].Message)
	assert.Equal(t, tick, warnings[0].ContextMap()["tracker"])

	recent := e.Recent()
	require.Len(t, recent, 3)
	assert.InDelta(t, 0.6, recent[1].Previous, 1e-12)
	assert.InDelta(t, 0.5, recent[1].Threshold, 1e-12)
}

func TestEngineSubstringRules(t *testing.T) {
	src := trackertest.NewFakeSource(
		tracker.Sample{Name: "Application.Tick", AvgTime: 0.7},
		tracker.Sample{Name: "Application.Reload", AvgTime: 0.7},
		tracker.Sample{Name: "SceneView.Paint", AvgTime: 0.7},
	)
	e := NewEngine(src, []Rule{{Name: "Application", Enabled: true, ThresholdMs: 500}}, nil)

	alerts := e.Check(1, src.Available())
	require.Len(t, alerts, 2)
	assert.Equal(t, "Application.Tick", alerts[0].Tracker)
	assert.Equal(t, "Application.Reload", alerts[1].Tracker)
	assert.Contains(t, alerts[1].Message, "Application.Reload is slower than expected")
}

func TestEngineSharedCacheAcrossMatches(t *testing.T) {
	src := trackertest.NewFakeSource(
		tracker.Sample{Name: "Application.Tick", AvgTime: 0.8},
		tracker.Sample{Name: "Application.Reload", AvgTime: 0.7},
	)
	e := NewEngine(src, []Rule{{Name: "Application", Enabled: true, ThresholdMs: 500}}, nil)

	// the rule name is the cache key so the second tracker is compared with 0.8
	alerts := e.Check(1, src.Available())
	require.Len(t, alerts, 1)
	assert.Equal(t, "Application.Tick", alerts[0].Tracker)
}

func TestEngineSkipsDisabledRules(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: tick, AvgTime: 2})
	e := NewEngine(src, []Rule{{Name: tick, Enabled: false, ThresholdMs: 500}}, nil)
	assert.Empty(t, e.Check(1, src.Available()))
}

func TestEngineReset(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: tick, AvgTime: 0.6})
	e := NewEngine(src, DefaultRules(), nil)

	require.Len(t, e.Check(1, src.Available()), 1)
	assert.Empty(t, e.Check(2, src.Available()))
	e.Reset()
	assert.Len(t, e.Check(3, src.Available()), 1)
}

func TestEngineObserversAndCallstack(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: tick, AvgTime: 0.6})
	src.SetCallstack(tick, "main.loop [game/loop.go:42]")

	var observed []Alert
	var callstacks []string
	e := NewEngine(src, DefaultRules(), nil,
		WithCallstackHandler(func(a Alert, cs string) { callstacks = append(callstacks, a.Tracker+"|"+cs) }))
	e.OnAlert(func(a Alert) { observed = append(observed, a) })

	alerts := e.Check(1, src.Available())
	require.Len(t, alerts, 1)
	assert.Equal(t, alerts, observed)
	assert.Equal(t, []string{tick + "|main.loop [game/loop.go:42]"}, callstacks)
}

func TestEngineDefaultCallstackHandlerLogs(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: tick, AvgTime: 0.6})
	src.SetCallstack(tick, "main.loop [game/loop.go:42]")
	core, logs := observer.New(zapcore.InfoLevel)
	e := NewEngine(src, DefaultRules(), zap.New(core))

	e.Check(1, src.Available())
	entries := logs.FilterMessage("Tracker callstack").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "main.loop [game/loop.go:42](game/loop.go#L42)", entries[0].ContextMap()["callstack"])
}

func TestEngineHistoryIsBounded(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: tick})
	e := NewEngine(src, DefaultRules(), nil, WithHistorySize(2))

	for i := 1; i <= 4; i++ {
		setAvg(src, tick, 0.5+float64(i)/10)
		e.Check(float64(i), src.Available())
	}
	recent := e.Recent()
	require.Len(t, recent, 2)
	assert.InDelta(t, 0.9, recent[1].Average, 1e-12)
	assert.InDelta(t, 0.8, recent[0].Average, 1e-12)
}

func TestEngineRules(t *testing.T) {
	e := NewEngine(trackertest.NewFakeSource(), DefaultRules(), nil)
	assert.False(t, e.AddRule(Rule{Name: "Application.Tick", Enabled: true, ThresholdMs: 100}))
	assert.True(t, e.AddRule(Rule{Name: "SceneView.Paint", Enabled: true, ThresholdMs: 100}))
	assert.Len(t, e.Rules(), 3)

	e.SetRules(nil)
	assert.Empty(t, e.Rules())
}

func TestEngineSanitizesMessage(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: "Application.Tick\nforged entry", AvgTime: 0.6})
	e := NewEngine(src, DefaultRules(), nil)

	alerts := e.Check(1, src.Available())
	require.Len(t, alerts, 1)
	assert.Equal(t, "Application.Tick\nforged entry", alerts[0].Tracker)
	assert.Equal(t, "Application.Tickforged entry is slower than expected (600.0 ms > 500.0 ms)", alerts[0].Message)
}
