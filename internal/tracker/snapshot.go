// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

import (
	"cmp"
	"slices"
	"strings"
)

// Build samples every tracker currently available in src and pairs each one
// with its delta against previous. Trackers that vanish between enumeration
// and sampling are dropped. src is only read.
func Build(src Source, previous []Record, sortBy Column, ascending, doSort bool) []Record {
	prevByName := make(map[string]Sample, len(previous))
	for i := range previous {
		// first occurrence wins, same as a front-to-back scan
		if _, ok := prevByName[previous[i].Name]; !ok {
			prevByName[previous[i].Name] = previous[i].Sample
		}
	}

	names := src.Available()
	records := make([]Record, 0, len(names))
	for _, name := range names {
		if !src.Exists(name) {
			continue
		}
		s := Sample{
			Name:        name,
			SampleCount: src.SampleCount(name),
			PeakTime:    src.PeakTime(name),
			AvgTime:     src.AvgTime(name),
			TotalTime:   src.TotalTime(name),
			LastTime:    src.LastTime(name),
			Usage:       src.Usage(name),
			Timestamp:   src.Timestamp(name),
		}
		r := Record{Sample: s}
		if prev, ok := prevByName[name]; ok {
			r.Delta = diff(s, prev)
		}
		records = append(records, r)
	}

	if doSort {
		Sort(records, sortBy, ascending)
	}
	return records
}

// Sort orders records in place by column. The sort is stable and equal keys
// fall back to ascending ordinal name order whatever the direction.
func Sort(records []Record, by Column, ascending bool) {
	dir := 1
	if !ascending {
		dir = -1
	}
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := compareColumn(a, b, by) * dir; c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func compareColumn(a, b Record, by Column) int {
	switch by {
	case ColumnSampleCount:
		return cmp.Compare(a.SampleCount, b.SampleCount)
	case ColumnAge:
		return cmp.Compare(a.Timestamp, b.Timestamp)
	case ColumnPeakTime:
		return cmp.Compare(a.PeakTime, b.PeakTime)
	case ColumnAvgTime:
		return cmp.Compare(a.AvgTime, b.AvgTime)
	case ColumnLastTime:
		return cmp.Compare(a.LastTime, b.LastTime)
	case ColumnTotalTime:
		// the total column displays the usage share next to the time
		return cmp.Compare(a.Usage, b.Usage)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

// Snapshotter keeps the previous snapshot so that every Refresh reports the
// change since the last one.
type Snapshotter struct {
	src      Source
	previous []Record
}

func NewSnapshotter(src Source) *Snapshotter {
	return &Snapshotter{src: src}
}

// Refresh builds a new snapshot, stores it as the baseline for the next call
// and returns it.
func (s *Snapshotter) Refresh(sortBy Column, ascending, doSort bool) []Record {
	s.previous = Build(s.src, s.previous, sortBy, ascending, doSort)
	return s.previous
}

// Previous returns the last snapshot produced by Refresh.
func (s *Snapshotter) Previous() []Record {
	return s.previous
}

// Source returns the source the snapshots are built from.
func (s *Snapshotter) Source() Source {
	return s.src
}
