// Package render draws the hub network and its overlays onto a Canvas.
package render

import (
	"fmt"
	"image/color"
)

// Stroke describes a line style. An empty Dash draws a solid line.
type Stroke struct {
	Color color.NRGBA
	Width float64
	Dash  []float64
}

// Fill describes a circle fill. When Radial is set the fill blends from
// Highlight at the upper third of the circle to Color at the rim.
type Fill struct {
	Color     color.NRGBA
	Highlight color.NRGBA
	Radial    bool
}

// Font selects a label face
type Font struct {
	Size float64
	Bold bool
}

// Canvas is the drawing surface the pipeline writes to.
type Canvas interface {
	Size() (width, height float64)
	Clear(bg color.NRGBA)
	Line(x1, y1, x2, y2 float64, s Stroke)
	Circle(x, y, r float64, f Fill, border Stroke)
	// Pill fills a rounded rectangle with top-left corner (x, y).
	Pill(x, y, w, h, radius float64, fill color.NRGBA)
	// Text draws s centered on (x, y).
	Text(s string, x, y float64, f Font, c color.NRGBA)
	TextWidth(s string, f Font) float64
}

// Hex formats c as #rrggbb, or #rrggbbaa when not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
