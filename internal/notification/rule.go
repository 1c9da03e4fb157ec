// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package notification // import "github.com/newrelic/nrdot-perftracking-components/internal/notification"

import (
	"errors"
	"fmt"
)

const (
	MinThresholdMs = 1
	MaxThresholdMs = 5000
)

// Rule raises an alert for every tracker whose name contains Name and whose
// average time exceeds ThresholdMs.
type Rule struct {
	Name        string  `mapstructure:"name"`
	Enabled     bool    `mapstructure:"enabled"`
	ThresholdMs float64 `mapstructure:"threshold_ms"`
}

// Threshold returns the rule threshold in seconds.
func (r Rule) Threshold() float64 {
	return r.ThresholdMs / 1000
}

func (r Rule) Validate() error {
	if r.Name == "" {
		return errors.New("notification name must not be empty")
	}
	if r.ThresholdMs < MinThresholdMs || r.ThresholdMs > MaxThresholdMs {
		return fmt.Errorf("notification %q: threshold_ms must be within [%d, %d], got %v",
			r.Name, MinThresholdMs, MaxThresholdMs, r.ThresholdMs)
	}
	return nil
}

// DefaultRules returns the rules active on a fresh install.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "Application.Tick", Enabled: true, ThresholdMs: 500},
		{Name: "Application.Reload", Enabled: true, ThresholdMs: 500},
	}
}

// AddRule appends r to rules unless a rule with the same name exists. It
// reports whether r was added.
func AddRule(rules []Rule, r Rule) ([]Rule, bool) {
	for _, existing := range rules {
		if existing.Name == r.Name {
			return rules, false
		}
	}
	return append(rules, r), true
}
