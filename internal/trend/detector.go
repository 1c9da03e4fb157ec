// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package trend keeps a short history of tracker average times and flags
// sudden slowdowns against it.
package trend // import "github.com/newrelic/nrdot-perftracking-components/internal/trend"

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/sanitize"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

const (
	defaultHistorySize     = 10
	defaultChangeThreshold = 200.0
	defaultMinDataPoints   = 3
	defaultSmoothing       = 0.2
)

// Anomaly is a tracker average that moved away from its recent history.
type Anomaly struct {
	Tracker       string
	Value         float64
	Mean          float64
	PercentChange float64
	Reason        string
}

// Detector tracks the average time of every updated tracker.
type Detector struct {
	// HistorySize bounds the number of averages remembered per tracker.
	HistorySize int
	// ChangeThreshold is the percent increase over the history mean that
	// makes an anomaly.
	ChangeThreshold float64
	// MinDataPoints is the history length required before checking.
	MinDataPoints int
	// Smoothing is the weight of the newest value in the baseline.
	Smoothing float64

	logger   *zap.Logger
	history  map[string][]float64
	baseline map[string]float64
}

func NewDetector(historySize int, changeThreshold float64, minDataPoints int, smoothing float64, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		HistorySize:     historySize,
		ChangeThreshold: changeThreshold,
		MinDataPoints:   minDataPoints,
		Smoothing:       smoothing,
		logger:          logger,
		history:         make(map[string][]float64),
		baseline:        make(map[string]float64),
	}
}

func (d *Detector) settings() (historySize int, changeThreshold float64, minPoints int, smoothing float64) {
	historySize, changeThreshold, minPoints, smoothing = d.HistorySize, d.ChangeThreshold, d.MinDataPoints, d.Smoothing
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	if changeThreshold <= 0 {
		changeThreshold = defaultChangeThreshold
	}
	if minPoints <= 0 {
		minPoints = defaultMinDataPoints
	}
	if smoothing <= 0 || smoothing > 1 {
		smoothing = defaultSmoothing
	}
	return historySize, changeThreshold, minPoints, smoothing
}

// Observe feeds the average time of every updated record and returns the
// anomalies found, in record order.
func (d *Detector) Observe(records []tracker.Record) []Anomaly {
	if d.history == nil {
		d.history = make(map[string][]float64)
		d.baseline = make(map[string]float64)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	historySize, changeThreshold, minPoints, smoothing := d.settings()

	var anomalies []Anomaly
	for _, r := range records {
		history, seen := d.history[r.Name]
		// a tracker first seen with samples seeds its history
		if !r.Updated && (seen || r.SampleCount == 0) {
			continue
		}
		d.record(r.Name, r.AvgTime, historySize, smoothing)

		if len(history) < minPoints {
			continue
		}
		mean := calculateAverage(history)
		pct := calculatePercentageChange(r.AvgTime, mean)
		if pct < changeThreshold {
			continue
		}

		a := Anomaly{
			Tracker:       r.Name,
			Value:         r.AvgTime,
			Mean:          mean,
			PercentChange: pct,
			Reason: fmt.Sprintf("%s avg time %ss (%.1f%% change from avg %ss)", sanitize.String(r.Name),
				tracker.ToEngineeringNotation(r.AvgTime, false), pct,
				tracker.ToEngineeringNotation(mean, false)),
		}
		d.logger.Debug("Trend anomaly detected",
			zap.String("tracker", r.Name),
			zap.Float64("value", r.AvgTime),
			zap.Float64("percent_change", pct),
			zap.Float64("average", mean))
		anomalies = append(anomalies, a)
	}
	return anomalies
}

func (d *Detector) record(name string, v float64, historySize int, smoothing float64) {
	history := append(d.history[name], v)
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	d.history[name] = history

	if b, ok := d.baseline[name]; ok {
		d.baseline[name] = smoothing*v + (1-smoothing)*b
	} else {
		d.baseline[name] = v
	}
}

// Baseline returns the smoothed average time of name.
func (d *Detector) Baseline(name string) (float64, bool) {
	b, ok := d.baseline[name]
	return b, ok
}

// History returns a copy of the remembered averages of name.
func (d *Detector) History(name string) []float64 {
	return append([]float64(nil), d.history[name]...)
}

// Forget drops every tracker not in live.
func (d *Detector) Forget(live []string) {
	keep := make(map[string]struct{}, len(live))
	for _, n := range live {
		keep[n] = struct{}{}
	}
	for name := range d.history {
		if _, ok := keep[name]; !ok {
			delete(d.history, name)
			delete(d.baseline, name)
		}
	}
}

// Len returns the number of trackers with a history.
func (d *Detector) Len() int { return len(d.history) }

func calculateAverage(history []float64) float64 {
	var sum float64
	for _, v := range history {
		sum += v
	}
	return sum / float64(len(history))
}

func calculatePercentageChange(v, mean float64) float64 {
	if mean > 0 {
		return (v - mean) / mean * 100
	}
	return 0
}
