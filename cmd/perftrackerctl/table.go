// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

const pinMark = "*"

// newListView pins every name of pins and applies the comma separated filter.
func newListView(pins []string, filterText string) *tracker.ListView {
	view := tracker.NewListView()
	for _, name := range pins {
		view.Pin(name)
	}
	view.SetFilter(filterText)
	return view
}

// writeTable renders records the way the tracker window lists them: pinned
// trackers first, then the ones passing the view filter. now is on the scale
// of the record timestamps.
func writeTable(w io.Writer, records []tracker.Record, view *tracker.ListView, now float64) error {
	pinned, rest := view.Partition(records)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tNAME\tSAMPLES\tAGE\tPEAK\tAVG\tTOTAL\tLEVEL\tTREND")
	for _, r := range pinned {
		writeTableRow(tw, pinMark, r, now)
	}
	for _, r := range rest {
		writeTableRow(tw, "", r, now)
	}
	return tw.Flush()
}

func writeTableRow(w io.Writer, pin string, r tracker.Record, now float64) {
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%ss\t%s\t%s\t%s\t%s\n",
		pin,
		r.Name,
		r.SampleCount,
		tracker.FormatAge(r, now),
		tracker.ToEngineeringNotation(r.PeakTime, false),
		tracker.FormatTime(r.AvgTime, r.DAvgTime),
		tracker.FormatTimeRate(r.TotalTime, r.Usage),
		rowLevel(r),
		tracker.Trend(r.DAvgTime))
}

// rowLevel is the worst severity among the peak, average and total columns.
func rowLevel(r tracker.Record) tracker.Level {
	return max(
		tracker.Severity(r.PeakTime, tracker.PeakLimits),
		tracker.Severity(r.AvgTime, tracker.AvgLimits),
		tracker.Severity(r.TotalTime, tracker.TotalLimits))
}
