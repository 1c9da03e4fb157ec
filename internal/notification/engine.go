// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package notification warns when trackers matching a rule get slower than
// the rule allows.
package notification // import "github.com/newrelic/nrdot-perftracking-components/internal/notification"

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/newrelic/nrdot-perftracking-components/internal/sanitize"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

const (
	// cacheLifetime is how long, in seconds, a raised threshold is remembered.
	cacheLifetime = 60

	defaultHistorySize = 32
)

// Alert describes one threshold breach.
type Alert struct {
	Tracker string
	Rule    string
	// Average is the tracker average time, in seconds, that breached.
	Average float64
	// Threshold is the configured rule threshold in seconds.
	Threshold float64
	// Previous is the value Average was compared against: the last alerted
	// average of the rule, or Threshold when none is cached.
	Previous float64
	Time     float64
	Message  string
}

// CallstackHandler receives the callstack requested for an alert.
type CallstackHandler func(a Alert, callstack string)

// Option configures an Engine.
type Option func(*Engine)

// WithCallstackHandler replaces the default handler, which logs the callstack.
func WithCallstackHandler(h CallstackHandler) Option {
	return func(e *Engine) { e.callstackHandler = h }
}

// WithHistorySize bounds the number of alerts kept for Recent.
func WithHistorySize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historySize = n
		}
	}
}

// Engine checks notification rules against live trackers.
//
// Once a rule fires, its threshold is raised to the breaching average so the
// same slowdown is not reported again. Raised thresholds are forgotten every
// minute of check time.
type Engine struct {
	src    tracker.Source
	rules  []Rule
	logger *zap.Logger

	cache       map[string]float64
	nextCleanup float64

	observers        []func(Alert)
	callstackHandler CallstackHandler
	recent           []Alert
	historySize      int
}

func NewEngine(src tracker.Source, rules []Rule, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		src:         src,
		rules:       slices.Clone(rules),
		logger:      logger,
		cache:       make(map[string]float64),
		historySize: defaultHistorySize,
	}
	e.callstackHandler = e.logCallstack
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns a copy of the configured rules.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// SetRules replaces the rules. Raised thresholds are kept until the next cleanup.
func (e *Engine) SetRules(rules []Rule) {
	e.rules = slices.Clone(rules)
}

// AddRule adds r unless a rule with the same name exists.
func (e *Engine) AddRule(r Rule) bool {
	var added bool
	e.rules, added = AddRule(e.rules, r)
	return added
}

// OnAlert registers fn to be called with every alert raised by Check.
func (e *Engine) OnAlert(fn func(Alert)) {
	e.observers = append(e.observers, fn)
}

// Reset forgets every raised threshold.
func (e *Engine) Reset() {
	clear(e.cache)
}

// Recent returns the latest alerts, oldest first.
func (e *Engine) Recent() []Alert {
	return slices.Clone(e.recent)
}

// Check evaluates every enabled rule against names at now, in seconds, and
// returns the alerts raised.
func (e *Engine) Check(now float64, names []string) []Alert {
	if now > e.nextCleanup {
		clear(e.cache)
		e.nextCleanup = now + cacheLifetime
	}

	var alerts []Alert
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		for _, name := range names {
			if !strings.Contains(name, rule.Name) {
				continue
			}
			avg := e.src.AvgTime(name)
			threshold, ok := e.cache[rule.Name]
			if !ok {
				threshold = rule.Threshold()
			}
			if avg <= threshold {
				continue
			}
			e.cache[rule.Name] = avg

			a := Alert{
				Tracker:   name,
				Rule:      rule.Name,
				Average:   avg,
				Threshold: rule.Threshold(),
				Previous:  threshold,
				Time:      now,
				Message: fmt.Sprintf("%s is slower than expected (%ss > %ss)", sanitize.String(name),
					tracker.ToEngineeringNotation(avg, false),
					tracker.ToEngineeringNotation(rule.Threshold(), false)),
			}
			e.raise(a)
			alerts = append(alerts, a)
		}
	}
	return alerts
}

func (e *Engine) raise(a Alert) {
	e.logger.Warn(a.Message,
		zap.String("tracker", a.Tracker),
		zap.String("rule", a.Rule),
		zap.Float64("avg_time", a.Average),
		zap.Float64("threshold", a.Threshold),
		zap.Float64("compared_to", a.Previous))

	e.recent = append(e.recent, a)
	if over := len(e.recent) - e.historySize; over > 0 {
		e.recent = slices.Delete(e.recent, 0, over)
	}

	for _, fn := range e.observers {
		fn(a)
	}
	e.src.Callstack(a.Tracker, func(cs string) {
		e.callstackHandler(a, cs)
	})
}

func (e *Engine) logCallstack(a Alert, callstack string) {
	e.logger.Info("Tracker callstack",
		zap.String("tracker", a.Tracker),
		zap.String("callstack", FormatCallstack(callstack)))
}
