// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package report // import "github.com/newrelic/nrdot-perftracking-components/internal/report"

import (
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

// TrackerInfo is one tracker of a structured report.
type TrackerInfo struct {
	Name      string  `json:"name" yaml:"name"`
	Samples   int     `json:"samples" yaml:"samples"`
	PeakTime  float64 `json:"peakTime" yaml:"peakTime"`
	AvgTime   float64 `json:"avgTime" yaml:"avgTime"`
	TotalTime float64 `json:"totalTime" yaml:"totalTime"`
}

// Report is the structured form of a tracker report.
type Report struct {
	Trackers []TrackerInfo `json:"trackers" yaml:"trackers"`
}

// Generate converts the records matching opts.Filter into a Report. Every
// field is always present, so the show toggles are not consulted.
func Generate(records []tracker.Record, opts Options) (Report, error) {
	if opts.Filter == "" {
		opts.Filter = MatchAll
	}
	rx, err := compileFilter(opts.Filter)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Trackers: []TrackerInfo{}}
	for _, r := range filterRecords(records, rx) {
		rep.Trackers = append(rep.Trackers, TrackerInfo{
			Name:      r.Name,
			Samples:   r.SampleCount,
			PeakTime:  r.PeakTime,
			AvgTime:   r.AvgTime,
			TotalTime: r.TotalTime,
		})
	}
	return rep, nil
}

// GenerateFromSource builds a fresh snapshot of src and converts it.
func GenerateFromSource(src tracker.Source, opts Options) (Report, error) {
	records := tracker.Build(src, nil, opts.SortBy, opts.SortAscending, opts.Sort)
	return Generate(records, opts)
}
