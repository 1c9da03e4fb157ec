// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package trackertest provides a scriptable tracker.Source for tests.
package trackertest // import "github.com/newrelic/nrdot-perftracking-components/internal/trackertest"

import (
	"slices"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

var _ tracker.Source = (*FakeSource)(nil)

// FakeSource is a tracker.Source backed by plain samples. It is not safe for
// concurrent use.
type FakeSource struct {
	order   []string
	samples map[string]tracker.Sample
	// vanished names stay enumerated by Available but report Exists false.
	vanished   map[string]bool
	callstacks map[string]string

	ResetCalls []string
}

func NewFakeSource(samples ...tracker.Sample) *FakeSource {
	f := &FakeSource{
		samples:    make(map[string]tracker.Sample),
		vanished:   make(map[string]bool),
		callstacks: make(map[string]string),
	}
	for _, s := range samples {
		f.Set(s)
	}
	return f
}

// Set adds or replaces the sample of s.Name.
func (f *FakeSource) Set(s tracker.Sample) {
	if _, ok := f.samples[s.Name]; !ok {
		f.order = append(f.order, s.Name)
	}
	f.samples[s.Name] = s
	delete(f.vanished, s.Name)
}

// Update applies fn to the current sample of name.
func (f *FakeSource) Update(name string, fn func(*tracker.Sample)) {
	s := f.samples[name]
	s.Name = name
	fn(&s)
	f.Set(s)
}

// Vanish keeps name in Available while Exists reports false, like a tracker
// disappearing between enumeration and sampling.
func (f *FakeSource) Vanish(name string) {
	f.vanished[name] = true
}

// Remove drops name entirely.
func (f *FakeSource) Remove(name string) {
	delete(f.samples, name)
	delete(f.vanished, name)
	f.order = slices.DeleteFunc(f.order, func(n string) bool { return n == name })
}

func (f *FakeSource) SetCallstack(name, cs string) {
	f.callstacks[name] = cs
}

func (f *FakeSource) Available() []string {
	return slices.Clone(f.order)
}

func (f *FakeSource) Exists(name string) bool {
	_, ok := f.samples[name]
	return ok && !f.vanished[name]
}

func (f *FakeSource) get(name string) tracker.Sample {
	if !f.Exists(name) {
		return tracker.Sample{}
	}
	return f.samples[name]
}

func (f *FakeSource) SampleCount(name string) int { return f.get(name).SampleCount }
func (f *FakeSource) PeakTime(name string) float64 { return f.get(name).PeakTime }
func (f *FakeSource) AvgTime(name string) float64 { return f.get(name).AvgTime }
func (f *FakeSource) TotalTime(name string) float64 { return f.get(name).TotalTime }
func (f *FakeSource) LastTime(name string) float64 { return f.get(name).LastTime }
func (f *FakeSource) Usage(name string) float64 { return f.get(name).Usage }
func (f *FakeSource) Timestamp(name string) float64 { return f.get(name).Timestamp }

// Reset records the call and zeroes the counters of name.
func (f *FakeSource) Reset(name string) {
	f.ResetCalls = append(f.ResetCalls, name)
	if s, ok := f.samples[name]; ok {
		f.samples[name] = tracker.Sample{Name: name, Timestamp: s.Timestamp}
	}
}

func (f *FakeSource) Callstack(name string, fn func(string)) {
	fn(f.callstacks[name])
}
