// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

import (
	"slices"
	"strings"
)

// ListView holds the pinned trackers and the free-text filter of a tracker list.
type ListView struct {
	pinned map[string]struct{}
	tokens []string
	filter string
}

func NewListView() *ListView {
	return &ListView{pinned: make(map[string]struct{})}
}

// SetFilter replaces the filter. The text is split on commas and every
// non-empty token is matched case-insensitively as a substring.
func (v *ListView) SetFilter(text string) {
	v.filter = text
	v.tokens = v.tokens[:0]
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			v.tokens = append(v.tokens, strings.ToLower(tok))
		}
	}
}

func (v *ListView) Filter() string { return v.filter }

func (v *ListView) Pin(name string)   { v.pinned[name] = struct{}{} }
func (v *ListView) Unpin(name string) { delete(v.pinned, name) }

// TogglePin flips the pinned state of name and reports the new state.
func (v *ListView) TogglePin(name string) bool {
	if v.IsPinned(name) {
		v.Unpin(name)
		return false
	}
	v.Pin(name)
	return true
}

func (v *ListView) IsPinned(name string) bool {
	_, ok := v.pinned[name]
	return ok
}

// Pinned returns the pinned names in ascending order.
func (v *ListView) Pinned() []string {
	names := make([]string, 0, len(v.pinned))
	for n := range v.pinned {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Matches reports whether name passes the filter.
func (v *ListView) Matches(name string) bool {
	if len(v.tokens) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, tok := range v.tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// Partition splits records into pinned ones and unpinned ones passing the
// filter, preserving order. Pinned records are never filtered out.
func (v *ListView) Partition(records []Record) (pinned, rest []Record) {
	for _, r := range records {
		switch {
		case v.IsPinned(r.Name):
			pinned = append(pinned, r)
		case v.Matches(r.Name):
			rest = append(rest, r)
		}
	}
	return pinned, rest
}
