package render

import (
	"image/color"
	"math"
)

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func alpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(a*255 + 0.5)
	return c
}

// Palette
var (
	Background = rgb(0xf8, 0xfa, 0xfc)
	White      = rgb(0xff, 0xff, 0xff)

	EdgeDefault = rgb(0xcb, 0xd5, 0xe1)
	EdgeMuted   = rgb(0xe5, 0xe7, 0xeb)
	EdgeBlocked = rgb(0xef, 0x44, 0x44)

	LabelBackground = alpha(White, 0.95)
	EdgeLabelText   = rgb(0x47, 0x55, 0x69)
	NodeLabelText   = rgb(0x1f, 0x29, 0x37)

	HistoryLine = rgb(0x10, 0xb9, 0x81)
	FutureLine  = rgb(0x3b, 0x82, 0xf6)
	PathLine    = rgb(0x8b, 0x5c, 0xf6)

	NodeDefault = rgb(0x63, 0x66, 0xf1)
	NodeVisited = rgb(0x10, 0xb9, 0x81)
	NodeCurrent = rgb(0xf9, 0x73, 0x16)
	NodeRing    = alpha(White, 0.9)
)

// Brighten adds pct percent of full scale (2.55 per point, rounded) to each
// channel of c, clamped to 0..255.
func Brighten(c color.NRGBA, pct float64) color.NRGBA {
	delta := math.Round(2.55 * pct)
	shift := func(v uint8) uint8 {
		f := float64(v) + delta
		if f > 255 {
			return 255
		}
		if f < 0 {
			return 0
		}
		return uint8(f)
	}
	return color.NRGBA{R: shift(c.R), G: shift(c.G), B: shift(c.B), A: c.A}
}
