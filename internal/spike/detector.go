// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package spike decides when a monitored entity is spiking, paints the
// highlight through a Sink and fades or resets it once the spike is over.
package spike // import "github.com/newrelic/nrdot-perftracking-components/internal/spike"

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

// Strategy selects the tracker value compared against the thresholds.
type Strategy int

const (
	// StrategyAvgTime compares the average time and resets the tracker after
	// every highlight change so the average only covers recent samples.
	StrategyAvgTime Strategy = iota
	// StrategyLastTime compares the time of the latest sample.
	StrategyLastTime
)

func (s Strategy) String() string {
	if s == StrategyLastTime {
		return "last_time"
	}
	return "avg_time"
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avg_time", "avgtime", "":
		return StrategyAvgTime, nil
	case "last_time", "lasttime":
		return StrategyLastTime, nil
	default:
		return StrategyAvgTime, fmt.Errorf("unknown spike strategy %q", s)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

const (
	// blackTime is the time, in seconds, at which a critical highlight turns black.
	blackTime = 10.0
	// elementAlpha is the opacity of element overlays.
	elementAlpha = 0.05
)

// Settings drive the Detector. Times are in seconds.
type Settings struct {
	WarningThreshold  float64
	CriticalThreshold float64
	// Duration is how long a highlight stays after its last spike. Window
	// highlights fade out over it.
	Duration float64
	Strategy Strategy
	Palette  Palette
}

// DefaultSettings returns the thresholds used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		WarningThreshold:  0.05,
		CriticalThreshold: 0.1,
		Strategy:          StrategyAvgTime,
		Palette:           DarkPalette,
	}
}

// State is the highlight state of one entity.
type State struct {
	Tracker string
	Kind    Kind
	Owner   string

	LastAvgTime     float64
	LastPeakTime    float64
	LastTime        float64
	LastSampleCount int
	LastSpikeTime   float64

	// Spiking is set while a highlight is shown. Color is the color it was
	// painted with and OverlayParent the surface it is attached to.
	Spiking       bool
	Color         Color
	OverlayParent string

	// PaintTriggeredByStateChange marks that the next sample of the tracker
	// comes from a repaint caused by the highlight itself and must be ignored.
	PaintTriggeredByStateChange bool

	parent string
}

// FadeSupported reports whether the highlight of the entity fades out.
func (s *State) FadeSupported() bool {
	return s.Kind == KindWindow
}

// Detector owns the highlight state of every monitored entity.
type Detector struct {
	src      tracker.Source
	sink     Sink
	settings Settings
	logger   *zap.Logger

	states map[string]*State
}

func NewDetector(src tracker.Source, sink Sink, settings Settings, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		src:      src,
		sink:     sink,
		settings: settings,
		logger:   logger,
		states:   make(map[string]*State),
	}
}

func (d *Detector) Settings() Settings { return d.settings }

// SetSettings replaces the settings. Existing highlights are kept.
func (d *Detector) SetSettings(s Settings) { d.settings = s }

// Len returns the number of tracked entities.
func (d *Detector) Len() int { return len(d.states) }

// State returns a copy of the state of id.
func (d *Detector) State(id string) (State, bool) {
	st, ok := d.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Update runs one detection pass at now, in seconds, over entities. Entities
// whose tracker no longer exists, and known entities missing from the list,
// are removed. Elements must follow their owner window in entities and are
// dropped when the owner is not monitored.
func (d *Detector) Update(now float64, entities []Entity) {
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if e.Kind == KindElement && e.Owner != "" {
			if _, ok := seen[e.Owner]; !ok {
				continue
			}
		}
		if !d.src.Exists(e.Tracker) {
			if _, ok := d.states[e.ID]; ok {
				d.remove(e.ID)
			}
			continue
		}
		seen[e.ID] = struct{}{}
		st, ok := d.states[e.ID]
		if !ok {
			st = &State{Tracker: e.Tracker, Kind: e.Kind, Owner: e.Owner, parent: e.Parent}
			d.states[e.ID] = st
		}
		d.update(now, e, st)
	}

	for _, id := range d.ids() {
		if _, ok := seen[id]; !ok {
			d.remove(id)
		}
	}
}

func (d *Detector) update(now float64, e Entity, st *State) {
	avgTime := d.src.AvgTime(e.Tracker)
	lastTime := d.src.LastTime(e.Tracker)
	sampleCount := d.src.SampleCount(e.Tracker)
	peakTime := d.src.PeakTime(e.Tracker)

	elapsed := 0.0
	if st.LastSpikeTime != 0 {
		elapsed = now - st.LastSpikeTime
	}

	current, previous := avgTime, st.LastAvgTime
	if d.settings.Strategy == StrategyLastTime {
		current, previous = lastTime, st.LastTime
	}

	st.parent = e.Parent
	if st.Spiking && st.OverlayParent != st.parent {
		// moved to another surface, the repaint it causes is a real one
		d.reset(e.ID, st, false)
	}

	s := d.settings
	switch {
	case !st.Spiking && sampleCount == st.LastSampleCount:
	case st.Spiking && sampleCount == st.LastSampleCount:
		if elapsed > s.Duration {
			d.reset(e.ID, st, true)
		} else if current < s.CriticalThreshold && st.FadeSupported() && s.Duration > 0 {
			alpha := float32((s.Duration - elapsed) / s.Duration)
			d.apply(e.ID, st, st.Color.WithAlpha(alpha))
		}
	default:
		switch {
		case st.PaintTriggeredByStateChange:
			st.PaintTriggeredByStateChange = false
		case current > s.CriticalThreshold:
			if !st.Spiking {
				t := float32((current - s.CriticalThreshold) / (blackTime - s.CriticalThreshold))
				d.apply(e.ID, st, s.Palette.Critical.Lerp(Black, t))
			}
			st.LastSpikeTime = now
		case current > s.WarningThreshold:
			if !st.Spiking {
				t := float32((current - s.WarningThreshold) / (s.CriticalThreshold - s.WarningThreshold))
				d.apply(e.ID, st, s.Palette.Warning.Lerp(s.Palette.Critical, t))
			}
			st.LastSpikeTime = now
		case previous > s.WarningThreshold:
			d.reset(e.ID, st, true)
		}
	}

	st.LastAvgTime = avgTime
	st.LastTime = lastTime
	st.LastSampleCount = sampleCount
	st.LastPeakTime = peakTime
}

func (d *Detector) apply(id string, st *State, c Color) {
	painted := c
	if st.Kind == KindElement {
		painted = c.WithAlpha(elementAlpha)
	} else if st.parent == "" {
		return
	}

	st.Spiking = true
	st.Color = c
	st.OverlayParent = st.parent
	d.sink.ApplyHighlight(id, painted)
	d.logger.Debug("Applied spike highlight",
		zap.String("entity", id),
		zap.String("tracker", st.Tracker),
		zap.String("color", painted.Hex()),
		zap.Float32("alpha", painted.A))

	st.PaintTriggeredByStateChange = true
	if d.settings.Strategy == StrategyAvgTime {
		d.src.Reset(st.Tracker)
	}
}

// reset clears the highlight of id. ignoreNext discards the sample caused by
// the repaint that follows.
func (d *Detector) reset(id string, st *State, ignoreNext bool) {
	wasSpiking := st.Spiking
	st.Spiking = false
	st.Color = Color{}
	st.OverlayParent = ""
	st.LastSpikeTime = 0
	st.LastTime = 0
	if ignoreNext {
		st.PaintTriggeredByStateChange = true
	}

	d.sink.ClearHighlight(id)
	if wasSpiking {
		d.logger.Debug("Cleared spike highlight", zap.String("entity", id), zap.String("tracker", st.Tracker))
	}

	if d.settings.Strategy == StrategyAvgTime {
		d.src.Reset(st.Tracker)
	}
}

func (d *Detector) remove(id string) {
	st, ok := d.states[id]
	if !ok {
		return
	}
	d.reset(id, st, true)
	delete(d.states, id)

	if st.Kind == KindWindow {
		for _, other := range d.ids() {
			if o, ok := d.states[other]; ok && o.Kind == KindElement && o.Owner == id {
				d.remove(other)
			}
		}
	}
}

func (d *Detector) ids() []string {
	ids := make([]string, 0, len(d.states))
	for id := range d.states {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RemoveAll clears and forgets every entity.
func (d *Detector) RemoveAll() {
	for _, id := range d.ids() {
		d.remove(id)
	}
}

// RemoveKind clears and forgets every entity of kind k.
func (d *Detector) RemoveKind(k Kind) {
	for _, id := range d.ids() {
		if st, ok := d.states[id]; ok && st.Kind == k {
			d.remove(id)
		}
	}
}
