// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sanitize strips control characters from host provided strings
// before they are written to logs. This addresses CWE-117:
// https://cwe.mitre.org/data/definitions/117.html
package sanitize // import "github.com/newrelic/nrdot-perftracking-components/internal/sanitize"

import (
	"strings"
	"unicode"
)

// String removes every control character from s. Tabs become spaces.
func String(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}
