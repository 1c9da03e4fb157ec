// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package spike // import "github.com/newrelic/nrdot-perftracking-components/internal/spike"

import (
	"fmt"
	"math"
)

// Color is a linear RGBA color with channels in [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGB builds an opaque color from 8-bit channels.
func RGB(r, g, b uint8) Color {
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: 1}
}

var Black = Color{A: 1}

// Lerp interpolates every channel from c to o. t is clamped to [0, 1].
func (c Color) Lerp(o Color, t float32) Color {
	t = min(max(t, 0), 1)
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// Hex renders the RGB channels as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) int {
	return int(math.Round(float64(min(max(v, 0), 1)) * 255))
}

// Palette holds the highlight colors of a theme.
type Palette struct {
	Warning  Color
	Critical Color
}

var (
	DarkPalette  = Palette{Warning: RGB(255, 204, 0), Critical: RGB(204, 51, 0)}
	LightPalette = Palette{Warning: RGB(240, 105, 53), Critical: RGB(204, 51, 0)}
)

// PaletteFor returns the palette of theme, "dark" or "light". Unknown themes
// get the dark palette.
func PaletteFor(theme string) Palette {
	if theme == "light" {
		return LightPalette
	}
	return DarkPalette
}
