// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

import (
	"fmt"
	"strings"
)

// Sample is the state of one tracker at one poll. Times are in seconds.
type Sample struct {
	Name        string  `json:"name"`
	SampleCount int     `json:"sample_count"`
	PeakTime    float64 `json:"peak_time"`
	AvgTime     float64 `json:"avg_time"`
	TotalTime   float64 `json:"total_time"`
	LastTime    float64 `json:"last_time"`
	Usage       float64 `json:"usage"`
	Timestamp   float64 `json:"timestamp"`
}

// Delta is the change of a Sample since the previous poll of the same tracker.
// It is all zeros when no previous sample existed.
type Delta struct {
	DSampleCount int     `json:"d_sample_count"`
	DPeakTime    float64 `json:"d_peak_time"`
	DAvgTime     float64 `json:"d_avg_time"`
	DLastTime    float64 `json:"d_last_time"`
	// Updated reports whether at least one observation happened since the
	// previous poll.
	Updated bool `json:"updated"`
}

// Record is the unit flowing through sort, filter and report.
type Record struct {
	Sample
	Delta
}

func diff(cur, prev Sample) Delta {
	d := Delta{
		DSampleCount: cur.SampleCount - prev.SampleCount,
		DPeakTime:    cur.PeakTime - prev.PeakTime,
		DAvgTime:     cur.AvgTime - prev.AvgTime,
		DLastTime:    cur.LastTime - prev.LastTime,
	}
	d.Updated = d.DSampleCount > 0
	return d
}

// Column identifies a sortable tracker column.
type Column int

const (
	ColumnName Column = iota
	ColumnSampleCount
	ColumnAge
	ColumnPeakTime
	ColumnAvgTime
	ColumnLastTime
	ColumnTotalTime
	ColumnActions
)

var columnNames = [...]string{
	ColumnName:        "name",
	ColumnSampleCount: "sample_count",
	ColumnAge:         "age",
	ColumnPeakTime:    "peak_time",
	ColumnAvgTime:     "avg_time",
	ColumnLastTime:    "last_time",
	ColumnTotalTime:   "total_time",
	ColumnActions:     "actions",
}

func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnNames[c]
}

// ParseColumn resolves a column from its snake_case name.
func ParseColumn(s string) (Column, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range columnNames {
		if n == s {
			return Column(i), nil
		}
	}
	return ColumnName, fmt.Errorf("unknown tracker column %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Column) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Column) UnmarshalText(text []byte) error {
	parsed, err := ParseColumn(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
