// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

const maxCallstackDepth = 32

// NoCallstackMessage is handed to Callstack consumers when nothing was captured.
const NoCallstackMessage = "no callstack captured"

type counters struct {
	count     int
	peak      float64
	total     float64
	last      float64
	timestamp float64
	callstack string
}

// Registry is an in-process Source that hosts record timings into. It is safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*counters
	order   []string
	grand   float64

	now       func() time.Time
	created   time.Time
	callstack bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the wall clock used for timestamps and scopes.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithCallstacks captures the caller stack of the slowest sample of every tracker.
func WithCallstacks() RegistryOption {
	return func(r *Registry) { r.callstack = true }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*counters),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.created = r.now()
	return r
}

// Elapsed returns the seconds since the registry was created, on the same
// scale as Timestamp.
func (r *Registry) Elapsed() float64 {
	return r.now().Sub(r.created).Seconds()
}

// Start opens a timing scope for name. Calling the returned func records the
// elapsed time.
func (r *Registry) Start(name string) func() {
	begin := r.now()
	return func() {
		r.record(name, r.now().Sub(begin))
	}
}

// Record adds one observation of duration d to name.
func (r *Registry) Record(name string, d time.Duration) {
	r.record(name, d)
}

func (r *Registry) record(name string, d time.Duration) {
	secs := d.Seconds()
	var stack string
	// captured outside the lock; only kept when this sample becomes the peak
	if r.callstack {
		stack = captureCallstack()
	}
	stamp := r.now().Sub(r.created).Seconds()

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.entries[name]
	if !ok {
		c = &counters{timestamp: stamp}
		r.entries[name] = c
		r.order = append(r.order, name)
	}
	c.count++
	c.total += secs
	c.last = secs
	r.grand += secs
	if c.count == 1 || secs > c.peak {
		c.peak = secs
		if r.callstack {
			c.callstack = stack
		}
	}
}

// captureCallstack skips itself, record and the exported entry point.
func captureCallstack() string {
	pcs := make([]uintptr, maxCallstackDepth)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		f, more := frames.Next()
		if f.Function != "" {
			fmt.Fprintf(&b, "%s [%s:%d]\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

func (r *Registry) read(name string, fn func(*counters) float64) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[name]
	if !ok {
		return 0
	}
	return fn(c)
}

func (r *Registry) SampleCount(name string) int {
	return int(r.read(name, func(c *counters) float64 { return float64(c.count) }))
}

func (r *Registry) PeakTime(name string) float64 {
	return r.read(name, func(c *counters) float64 { return c.peak })
}

func (r *Registry) AvgTime(name string) float64 {
	return r.read(name, func(c *counters) float64 {
		if c.count == 0 {
			return 0
		}
		return c.total / float64(c.count)
	})
}

func (r *Registry) TotalTime(name string) float64 {
	return r.read(name, func(c *counters) float64 { return c.total })
}

func (r *Registry) LastTime(name string) float64 {
	return r.read(name, func(c *counters) float64 { return c.last })
}

func (r *Registry) Usage(name string) float64 {
	return r.read(name, func(c *counters) float64 {
		if r.grand <= 0 {
			return 0
		}
		return c.total / r.grand * 100
	})
}

func (r *Registry) Timestamp(name string) float64 {
	return r.read(name, func(c *counters) float64 { return c.timestamp })
}

// Reset zeroes the counters of name. The tracker stays registered and keeps
// its first-seen timestamp.
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.entries[name]
	if !ok {
		return
	}
	r.grand -= c.total
	if r.grand < 0 {
		r.grand = 0
	}
	*c = counters{timestamp: c.timestamp}
}

// Callstack hands the callstack of the slowest sample of name to fn.
func (r *Registry) Callstack(name string, fn func(callstack string)) {
	r.mu.RLock()
	var stack string
	if c, ok := r.entries[name]; ok {
		stack = c.callstack
	}
	r.mu.RUnlock()
	if stack == "" {
		stack = NoCallstackMessage
	}
	fn(stack)
}
