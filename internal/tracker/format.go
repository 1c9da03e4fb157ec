// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

import (
	"fmt"
	"math"
)

// FormatAge renders how long ago r was first observed, or "---" when it did
// not change since the previous snapshot.
func FormatAge(r Record, now float64) string {
	if !r.Updated {
		return "---"
	}
	return ToEngineeringNotation(now-r.Timestamp, false) + "s"
}

// FormatTime renders a time next to its signed change.
func FormatTime(t, dt float64) string {
	return fmt.Sprintf("%ss (%ss)", ToEngineeringNotation(t, false), ToEngineeringNotation(dt, true))
}

// FormatTimeRate renders a time next to its usage share.
func FormatTimeRate(t, usage float64) string {
	return fmt.Sprintf("%ss (%.2f %%)", ToEngineeringNotation(t, false), usage)
}

// Level classifies a time against warning and critical limits.
type Level int

const (
	LevelNormal Level = iota
	LevelWarning
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Limits holds the warning and critical limits of a column, in seconds.
type Limits struct {
	Warning  float64
	Critical float64
}

// Default column limits used when labelling times.
var (
	PeakLimits  = Limits{Warning: 0.5, Critical: 1.0}
	AvgLimits   = Limits{Warning: 0.1, Critical: 0.5}
	TotalLimits = Limits{Warning: 5, Critical: 10}
)

// Severity classifies t against l.
func Severity(t float64, l Limits) Level {
	switch {
	case t >= l.Critical:
		return LevelCritical
	case t >= l.Warning:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// Direction tells whether a time moved since the previous snapshot.
type Direction int

const (
	Steady Direction = iota
	Faster
	Slower
)

func (d Direction) String() string {
	switch d {
	case Faster:
		return "faster"
	case Slower:
		return "slower"
	default:
		return "steady"
	}
}

const steadyEpsilon = 0.00075

// Trend classifies a time change. Changes under a fraction of a millisecond
// are steady.
func Trend(dt float64) Direction {
	switch {
	case math.Abs(dt) < steadyEpsilon:
		return Steady
	case dt < 0:
		return Faster
	default:
		return Slower
	}
}
