// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report renders tracker snapshots as aligned text, as a structured
// document and as metrics.
package report // import "github.com/newrelic/nrdot-perftracking-components/internal/report"

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

// ErrNothingToShow is returned when a text report would contain no values.
var ErrNothingToShow = errors.New("at least one value must be shown in the report")

// MatchAll is the filter used when every tracker is wanted.
const MatchAll = ".+"

// Options selects and shapes the trackers of a report.
type Options struct {
	// Filter is a case-insensitive regular expression matched against
	// tracker names. Empty matches every tracker.
	Filter string `mapstructure:"filter"`

	ShowSamples bool `mapstructure:"show_samples"`
	ShowPeak    bool `mapstructure:"show_peak"`
	ShowAvg     bool `mapstructure:"show_avg"`
	ShowTotal   bool `mapstructure:"show_total"`

	Sort          bool           `mapstructure:"sort"`
	SortBy        tracker.Column `mapstructure:"sort_by"`
	SortAscending bool           `mapstructure:"sort_ascending"`
}

// ShowAll returns o with every value toggle enabled.
func (o Options) ShowAll() Options {
	o.ShowSamples, o.ShowPeak, o.ShowAvg, o.ShowTotal = true, true, true, true
	return o
}

func (o Options) validate() error {
	if !o.ShowSamples && !o.ShowPeak && !o.ShowAvg && !o.ShowTotal {
		return ErrNothingToShow
	}
	return nil
}

func compileFilter(filter string) (*regexp.Regexp, error) {
	if filter == "" {
		return nil, nil
	}
	rx, err := regexp.Compile("(?i)" + filter)
	if err != nil {
		return nil, fmt.Errorf("invalid tracker filter %q: %w", filter, err)
	}
	return rx, nil
}

func filterRecords(records []tracker.Record, rx *regexp.Regexp) []tracker.Record {
	if rx == nil {
		return records
	}
	out := make([]tracker.Record, 0, len(records))
	for _, r := range records {
		if rx.MatchString(r.Name) {
			out = append(out, r)
		}
	}
	return out
}

func (o Options) tokens(samples int, peak, avg, total float64) string {
	shown := make([]string, 0, 4)
	if o.ShowSamples {
		shown = append(shown, fmt.Sprintf("%d samples", samples))
	}
	if o.ShowPeak {
		shown = append(shown, "Peak "+tracker.ToEngineeringNotation(peak, false)+"s")
	}
	if o.ShowAvg {
		shown = append(shown, "Avg. "+tracker.ToEngineeringNotation(avg, false)+"s")
	}
	if o.ShowTotal {
		shown = append(shown, "Total "+tracker.ToEngineeringNotation(total, false)+"s")
	}
	return strings.Join(shown, ", ")
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func maxNameWidth[T any](items []T, name func(T) string) int {
	width := 0
	for _, it := range items {
		width = max(width, utf8.RuneCountInString(name(it)))
	}
	return width
}

// Text renders one line per record matching opts.Filter, names right-aligned
// to the longest of them. The records are rendered in the order given.
func Text(records []tracker.Record, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	rx, err := compileFilter(opts.Filter)
	if err != nil {
		return "", err
	}
	filtered := filterRecords(records, rx)
	width := maxNameWidth(filtered, func(r tracker.Record) string { return r.Name })

	lines := make([]string, 0, len(filtered))
	for _, r := range filtered {
		lines = append(lines, padLeft(r.Name, width)+": "+opts.tokens(r.SampleCount, r.PeakTime, r.AvgTime, r.TotalTime))
	}
	return strings.Join(lines, "\n"), nil
}

// TextFromNames renders the live values of names straight from src. Names
// that no longer exist are skipped but still count towards the alignment.
func TextFromNames(src tracker.Source, names []string, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	width := maxNameWidth(names, func(n string) string { return n })

	lines := make([]string, 0, len(names))
	for _, name := range names {
		if !src.Exists(name) {
			continue
		}
		lines = append(lines, padLeft(name, width)+": "+
			opts.tokens(src.SampleCount(name), src.PeakTime(name), src.AvgTime(name), src.TotalTime(name)))
	}
	return strings.Join(lines, "\n"), nil
}

// FromSource builds a fresh snapshot of src and renders it with Text.
func FromSource(src tracker.Source, opts Options) (string, error) {
	records := tracker.Build(src, nil, opts.SortBy, opts.SortAscending, opts.Sort)
	return Text(records, opts)
}

// AllFromSource is FromSource over every tracker regardless of opts.Filter.
func AllFromSource(src tracker.Source, opts Options) (string, error) {
	opts.Filter = MatchAll
	return FromSource(src, opts)
}

// BugReportDescription builds the description attached to a performance bug
// report: every tracker sorted by peak time, and the report of marker alone
// when one is given.
func BugReportDescription(src tracker.Source, marker string) (string, error) {
	opts := Options{
		Sort:          true,
		SortBy:        tracker.ColumnPeakTime,
		SortAscending: false,
	}.ShowAll()

	var b strings.Builder
	b.WriteString("1. What is slow (complete performance tracker report attached)\n")
	if marker != "" {
		opts.Filter = "^" + regexp.QuoteMeta(marker) + "$"
		markerReport, err := FromSource(src, opts)
		if err != nil {
			return "", err
		}
		b.WriteString("\n")
		b.WriteString(markerReport)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("2. How we can reproduce it using the example you attached")
	return b.String(), nil
}
