// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"

import (
	"math"
	"strconv"
)

type notationBand struct {
	minExp int
	scale  float64
	suffix string
}

// Bands below femto keep the femto scale so output stays comparable with
// reports produced by earlier tooling.
var notationBands = []notationBand{
	{minExp: -3, scale: 1e3, suffix: "m"},
	{minExp: -6, scale: 1e6, suffix: "µ"},
	{minExp: -9, scale: 1e9, suffix: "n"},
	{minExp: -12, scale: 1e12, suffix: "p"},
	{minExp: -15, scale: 1e15, suffix: "f"},
	{minExp: -18, scale: 1e15, suffix: "a"},
	{minExp: -21, scale: 1e15, suffix: "z"},
}

var lastBand = notationBand{scale: 1e15, suffix: "y"}

// ToEngineeringNotation renders v with one decimal and an SI suffix for values
// below one. Zero is rendered as "0". A leading "+" is added when printSign is
// set and v is not negative.
func ToEngineeringNotation(v float64, printSign bool) string {
	if v == 0 {
		return "0"
	}
	sign := ""
	if printSign && v >= 0 {
		sign = "+"
	}

	abs := math.Abs(v)
	if abs >= 1 {
		return sign + formatTenths(v)
	}

	exp := int(math.Floor(math.Log10(abs)))
	band := lastBand
	for _, b := range notationBands {
		if exp >= b.minExp {
			band = b
			break
		}
	}
	return sign + formatTenths(v*band.scale) + " " + band.suffix
}

// formatTenths rounds halves away from zero before printing one decimal.
func formatTenths(x float64) string {
	return strconv.FormatFloat(math.Round(x*10)/10, 'f', 1, 64)
}
