// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package spike // import "github.com/newrelic/nrdot-perftracking-components/internal/spike"

import (
	"go.uber.org/zap"
)

// Sink renders highlights decided by the Detector.
type Sink interface {
	ApplyHighlight(id string, c Color)
	// ClearHighlight removes the highlight of id and lets the host repaint it.
	ClearHighlight(id string)
}

// LogSink reports highlights through a logger, for hosts without a surface
// to paint on.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) ApplyHighlight(id string, c Color) {
	s.logger.Info("Spike highlight",
		zap.String("entity", id),
		zap.String("color", c.Hex()),
		zap.Float32("alpha", c.A))
}

func (s *LogSink) ClearHighlight(id string) {
	s.logger.Debug("Spike highlight cleared", zap.String("entity", id))
}

// Event is one call recorded by a RecordingSink.
type Event struct {
	ID    string
	Clear bool
	Color Color
}

// RecordingSink records every call it receives.
type RecordingSink struct {
	Events []Event
}

func (s *RecordingSink) ApplyHighlight(id string, c Color) {
	s.Events = append(s.Events, Event{ID: id, Color: c})
}

func (s *RecordingSink) ClearHighlight(id string) {
	s.Events = append(s.Events, Event{ID: id, Clear: true})
}

// Last returns the most recent event of id.
func (s *RecordingSink) Last(id string) (Event, bool) {
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].ID == id {
			return s.Events[i], true
		}
	}
	return Event{}, false
}

// Reset forgets the recorded events.
func (s *RecordingSink) Reset() {
	s.Events = nil
}

// MultiSink fans highlights out to several sinks.
type MultiSink []Sink

func (m MultiSink) ApplyHighlight(id string, c Color) {
	for _, s := range m {
		s.ApplyHighlight(id, c)
	}
}

func (m MultiSink) ClearHighlight(id string) {
	for _, s := range m {
		s.ClearHighlight(id)
	}
}
