package render

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// RasterCanvas draws into an RGBA image using gg.
type RasterCanvas struct {
	dc      *gg.Context
	regular *truetype.Font
	bold    *truetype.Font
	faces   map[Font]font.Face
}

// NewRasterCanvas creates a canvas of the given pixel size
func NewRasterCanvas(width, height int) (*RasterCanvas, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	dc := gg.NewContext(width, height)
	dc.SetLineCapRound()

	return &RasterCanvas{
		dc:      dc,
		regular: regular,
		bold:    bold,
		faces:   make(map[Font]font.Face),
	}, nil
}

func (c *RasterCanvas) face(f Font) font.Face {
	if face, ok := c.faces[f]; ok {
		return face
	}
	ttf := c.regular
	if f.Bold {
		ttf = c.bold
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: f.Size, DPI: 72, Hinting: font.HintingFull})
	c.faces[f] = face
	return face
}

func (c *RasterCanvas) Size() (float64, float64) {
	return float64(c.dc.Width()), float64(c.dc.Height())
}

func (c *RasterCanvas) Clear(bg color.NRGBA) {
	c.dc.SetColor(bg)
	c.dc.Clear()
}

func (c *RasterCanvas) Line(x1, y1, x2, y2 float64, s Stroke) {
	c.dc.SetColor(s.Color)
	c.dc.SetLineWidth(s.Width)
	c.dc.SetDash(s.Dash...)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
	c.dc.SetDash()
}

func (c *RasterCanvas) Circle(x, y, r float64, f Fill, border Stroke) {
	if f.Radial {
		g := gg.NewRadialGradient(x, y-r/3, 0, x, y, r)
		g.AddColorStop(0, f.Highlight)
		g.AddColorStop(1, f.Color)
		c.dc.SetFillStyle(g)
	} else {
		c.dc.SetColor(f.Color)
	}
	c.dc.DrawCircle(x, y, r)
	c.dc.Fill()

	if border.Width > 0 {
		c.dc.SetColor(border.Color)
		c.dc.SetLineWidth(border.Width)
		c.dc.SetDash(border.Dash...)
		c.dc.DrawCircle(x, y, r)
		c.dc.Stroke()
		c.dc.SetDash()
	}
}

func (c *RasterCanvas) Pill(x, y, w, h, radius float64, fill color.NRGBA) {
	c.dc.SetColor(fill)
	c.dc.DrawRoundedRectangle(x, y, w, h, radius)
	c.dc.Fill()
}

func (c *RasterCanvas) Text(s string, x, y float64, f Font, col color.NRGBA) {
	c.dc.SetFontFace(c.face(f))
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

func (c *RasterCanvas) TextWidth(s string, f Font) float64 {
	c.dc.SetFontFace(c.face(f))
	w, _ := c.dc.MeasureString(s)
	return w
}

// Image returns the rendered image
func (c *RasterCanvas) Image() image.Image {
	return c.dc.Image()
}

// EncodePNG writes the canvas as PNG
func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}
