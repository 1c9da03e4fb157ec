// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleValidate(t *testing.T) {
	testCases := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{name: "valid", rule: Rule{Name: "Application.Tick", ThresholdMs: 500}},
		{name: "lower bound", rule: Rule{Name: "A", ThresholdMs: 1}},
		{name: "upper bound", rule: Rule{Name: "A", ThresholdMs: 5000}},
		{name: "empty name", rule: Rule{ThresholdMs: 500}, wantErr: "name must not be empty"},
		{name: "too small", rule: Rule{Name: "A", ThresholdMs: 0.5}, wantErr: "threshold_ms must be within [1, 5000]"},
		{name: "too large", rule: Rule{Name: "A", ThresholdMs: 6000}, wantErr: "threshold_ms must be within [1, 5000]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRuleThreshold(t *testing.T) {
	assert.InDelta(t, 0.5, Rule{ThresholdMs: 500}.Threshold(), 1e-12)
}

func TestAddRuleDedupesByName(t *testing.T) {
	rules, added := AddRule(DefaultRules(), Rule{Name: "Application.Reload", ThresholdMs: 10})
	assert.False(t, added)
	assert.Len(t, rules, 2)
	assert.InDelta(t, 500, rules[1].ThresholdMs, 1e-12)

	rules, added = AddRule(rules, Rule{Name: "Editor.Inspector", ThresholdMs: 10})
	assert.True(t, added)
	assert.Len(t, rules, 3)
}

func TestFormatCallstack(t *testing.T) {
	in := "Foo.Bar () [Assets/Foo.cs:12]\nBaz.Qux () [Assets/Baz.cs:7]\nno location here"
	want := "Foo.Bar () [Assets/Foo.cs:12](Assets/Foo.cs#L12)\nBaz.Qux () [Assets/Baz.cs:7](Assets/Baz.cs#L7)\nno location here"
	assert.Equal(t, want, FormatCallstack(in))
}
