// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

// Source supplies raw counters keyed by tracker name.
//
// A tracker may disappear between Available and the per-field queries, so
// callers check Exists first and tolerate zero values afterwards. All methods
// are expected to be cheap in-memory reads.
type Source interface {
	// Available enumerates the names of all known trackers.
	Available() []string
	Exists(name string) bool

	SampleCount(name string) int
	PeakTime(name string) float64
	AvgTime(name string) float64
	TotalTime(name string) float64
	LastTime(name string) float64
	// Usage is the share of total tracked time attributable to name, 0-100.
	Usage(name string) float64
	// Timestamp is the number of seconds since process start at which name
	// was first observed.
	Timestamp(name string) float64

	// Reset clears the running counters of name.
	Reset(name string)
	// Callstack asynchronously hands the callstack associated with name to fn.
	Callstack(name string, fn func(callstack string))
}
