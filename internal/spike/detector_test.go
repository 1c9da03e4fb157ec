// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package spike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
	"github.com/newrelic/nrdot-perftracking-components/internal/trackertest"
)

const sceneMarker = "SceneView.Paint"

func sceneWindow() Entity {
	return Entity{ID: sceneMarker, Tracker: sceneMarker, Parent: "root", Kind: KindWindow}
}

func newTestDetector(t *testing.T, src tracker.Source, settings Settings) (*Detector, *RecordingSink) {
	sink := &RecordingSink{}
	return NewDetector(src, sink, settings, zaptest.NewLogger(t)), sink
}

func lastTimeSettings(duration float64) Settings {
	s := DefaultSettings()
	s.Strategy = StrategyLastTime
	s.Duration = duration
	return s
}

func TestDetectorCriticalSpikeThenReset(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1, AvgTime: 0.01})
	d, sink := newTestDetector(t, src, DefaultSettings())
	entities := []Entity{sceneWindow()}

	d.Update(1, entities)
	st, ok := d.State(sceneMarker)
	require.True(t, ok)
	assert.False(t, st.Spiking)
	assert.Empty(t, sink.Events)

	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, AvgTime: 0.5})
	d.Update(2, entities)

	st, _ = d.State(sceneMarker)
	require.True(t, st.Spiking)
	avg, crit := 0.5, 0.1
	want := DarkPalette.Critical.Lerp(Black, float32((avg-crit)/(10-crit)))
	assert.Equal(t, want, st.Color)
	assert.InDelta(t, 2, st.LastSpikeTime, 1e-12)
	assert.True(t, st.PaintTriggeredByStateChange)
	ev, ok := sink.Last(sceneMarker)
	require.True(t, ok)
	assert.False(t, ev.Clear)
	assert.Equal(t, want, ev.Color)
	// the average strategy restarts the tracker on every highlight change
	assert.Equal(t, []string{sceneMarker}, src.ResetCalls)

	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, AvgTime: 0.5})
	d.Update(3, entities)

	st, _ = d.State(sceneMarker)
	assert.False(t, st.Spiking)
	assert.Zero(t, st.LastSpikeTime)
	ev, _ = sink.Last(sceneMarker)
	assert.True(t, ev.Clear)
	assert.Equal(t, []string{sceneMarker, sceneMarker}, src.ResetCalls)
}

func TestDetectorWarningSpikeFadesOut(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1, LastTime: 0.02})
	d, sink := newTestDetector(t, src, lastTimeSettings(2))
	entities := []Entity{sceneWindow()}

	d.Update(1, entities)

	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, LastTime: 0.07})
	d.Update(2, entities)
	last, lo, hi := 0.07, 0.05, 0.1
	warn := DarkPalette.Warning.Lerp(DarkPalette.Critical, float32((last-lo)/(hi-lo)))
	st, _ := d.State(sceneMarker)
	require.True(t, st.Spiking)
	assert.Equal(t, warn, st.Color)
	require.Len(t, sink.Events, 1)

	// repaint caused by the highlight itself
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 3, LastTime: 0.07})
	d.Update(3, entities)
	st, _ = d.State(sceneMarker)
	assert.False(t, st.PaintTriggeredByStateChange)
	assert.True(t, st.Spiking)
	require.Len(t, sink.Events, 1)

	d.Update(3.5, entities)
	require.Len(t, sink.Events, 2)
	faded := sink.Events[1]
	assert.InDelta(t, 0.25, faded.Color.A, 1e-6)
	assert.Equal(t, warn.R, faded.Color.R)
	assert.Equal(t, warn.G, faded.Color.G)

	d.Update(4.5, entities)
	st, _ = d.State(sceneMarker)
	assert.False(t, st.Spiking)
	ev, _ := sink.Last(sceneMarker)
	assert.True(t, ev.Clear)
	assert.Empty(t, src.ResetCalls)
}

func TestDetectorCriticalDoesNotFade(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1})
	d, sink := newTestDetector(t, src, lastTimeSettings(2))
	entities := []Entity{sceneWindow()}

	d.Update(1, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, LastTime: 0.5})
	d.Update(2, entities)
	require.Len(t, sink.Events, 1)

	d.Update(3, entities)
	assert.Len(t, sink.Events, 1)
	st, _ := d.State(sceneMarker)
	assert.True(t, st.Spiking)
}

func TestDetectorRefreshKeepsColor(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1})
	d, sink := newTestDetector(t, src, lastTimeSettings(5))
	entities := []Entity{sceneWindow()}

	d.Update(1, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, LastTime: 0.07})
	d.Update(2, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 3, LastTime: 0.07})
	d.Update(3, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 4, LastTime: 0.09})
	d.Update(4, entities)

	assert.Len(t, sink.Events, 1)
	st, _ := d.State(sceneMarker)
	assert.True(t, st.Spiking)
	assert.InDelta(t, 4, st.LastSpikeTime, 1e-12)
}

func TestDetectorResetsWhenBackToNormal(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1})
	d, sink := newTestDetector(t, src, lastTimeSettings(5))
	entities := []Entity{sceneWindow()}

	d.Update(1, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, LastTime: 0.07})
	d.Update(2, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 3, LastTime: 0.07})
	d.Update(3, entities)
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 4, LastTime: 0.01})
	d.Update(4, entities)

	st, _ := d.State(sceneMarker)
	assert.False(t, st.Spiking)
	assert.True(t, st.PaintTriggeredByStateChange)
	ev, _ := sink.Last(sceneMarker)
	assert.True(t, ev.Clear)
}

func TestDetectorWindowWithoutParent(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1})
	d, sink := newTestDetector(t, src, lastTimeSettings(0))
	hidden := sceneWindow()
	hidden.Parent = ""

	d.Update(1, []Entity{hidden})
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, LastTime: 0.5})
	d.Update(2, []Entity{hidden})

	st, _ := d.State(sceneMarker)
	assert.False(t, st.Spiking)
	assert.False(t, st.PaintTriggeredByStateChange)
	assert.InDelta(t, 2, st.LastSpikeTime, 1e-12)
	assert.Empty(t, sink.Events)
}

func TestDetectorReparentInvalidates(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1})
	d, sink := newTestDetector(t, src, lastTimeSettings(5))
	w := sceneWindow()

	d.Update(1, []Entity{w})
	src.Set(tracker.Sample{Name: sceneMarker, SampleCount: 2, LastTime: 0.5})
	d.Update(2, []Entity{w})
	st, _ := d.State(sceneMarker)
	require.True(t, st.Spiking)
	assert.Equal(t, "root", st.OverlayParent)

	w.Parent = "docked"
	d.Update(3, []Entity{w})
	st, _ = d.State(sceneMarker)
	assert.False(t, st.Spiking)
	assert.Empty(t, st.OverlayParent)
	ev, _ := sink.Last(sceneMarker)
	assert.True(t, ev.Clear)
}

func TestDetectorElements(t *testing.T) {
	inspector := WindowPaintMarker("InspectorWindow")
	element := ElementMarker("Transform")
	src := trackertest.NewFakeSource(
		tracker.Sample{Name: inspector, SampleCount: 1},
		tracker.Sample{Name: element, SampleCount: 1},
	)
	d, sink := newTestDetector(t, src, lastTimeSettings(5))
	entities := []Entity{
		{ID: inspector, Tracker: inspector, Parent: "root", Kind: KindWindow},
		{ID: element, Tracker: element, Parent: "transform", Kind: KindElement, Owner: inspector},
	}

	d.Update(1, entities)
	src.Set(tracker.Sample{Name: element, SampleCount: 2, LastTime: 0.07})
	d.Update(2, entities)
	require.Equal(t, 2, d.Len())

	ev, ok := sink.Last(element)
	require.True(t, ok)
	assert.InDelta(t, 0.05, ev.Color.A, 1e-6)
	st, _ := d.State(element)
	assert.True(t, st.Spiking)
	assert.False(t, st.FadeSupported())

	// elements hold their highlight instead of fading
	d.Update(3, entities)
	assert.Len(t, sink.Events, 1)

	d.Update(4, entities[:0])
	assert.Zero(t, d.Len())
}

func TestDetectorElementWithoutOwnerIsDropped(t *testing.T) {
	element := ElementMarker("Transform")
	src := trackertest.NewFakeSource(tracker.Sample{Name: element, SampleCount: 1})
	d, _ := newTestDetector(t, src, DefaultSettings())

	d.Update(1, []Entity{{ID: element, Tracker: element, Parent: "transform", Kind: KindElement, Owner: "InspectorWindow.Paint"}})
	assert.Zero(t, d.Len())
}

func TestDetectorRemovesVanishedTrackers(t *testing.T) {
	src := trackertest.NewFakeSource(tracker.Sample{Name: sceneMarker, SampleCount: 1})
	d, sink := newTestDetector(t, src, lastTimeSettings(0))
	entities := []Entity{sceneWindow()}

	d.Update(1, entities)
	require.Equal(t, 1, d.Len())

	src.Vanish(sceneMarker)
	d.Update(2, entities)
	assert.Zero(t, d.Len())
	ev, ok := sink.Last(sceneMarker)
	require.True(t, ok)
	assert.True(t, ev.Clear)
}

func TestDetectorRemoveKindAndAll(t *testing.T) {
	inspector := WindowPaintMarker("InspectorWindow")
	element := ElementMarker("Camera")
	src := trackertest.NewFakeSource(
		tracker.Sample{Name: inspector, SampleCount: 1},
		tracker.Sample{Name: element, SampleCount: 1},
		tracker.Sample{Name: sceneMarker, SampleCount: 1},
	)
	d, _ := newTestDetector(t, src, DefaultSettings())
	entities := []Entity{
		sceneWindow(),
		{ID: inspector, Tracker: inspector, Parent: "root", Kind: KindWindow},
		{ID: element, Tracker: element, Parent: "camera", Kind: KindElement, Owner: inspector},
	}

	d.Update(1, entities)
	require.Equal(t, 3, d.Len())

	d.RemoveKind(KindElement)
	assert.Equal(t, 2, d.Len())
	_, ok := d.State(element)
	assert.False(t, ok)

	d.Update(2, entities)
	require.Equal(t, 3, d.Len())
	d.RemoveAll()
	assert.Zero(t, d.Len())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("last_time")
	require.NoError(t, err)
	assert.Equal(t, StrategyLastTime, s)

	var parsed Strategy
	require.NoError(t, parsed.UnmarshalText([]byte("AVG_TIME")))
	assert.Equal(t, StrategyAvgTime, parsed)

	_, err = ParseStrategy("peak")
	assert.Error(t, err)
}
