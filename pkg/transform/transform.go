// Package transform fits world coordinates into a pixel viewport and maps
// points between the two frames.
package transform

import (
	"math"

	"github.com/ritzau/hubmap/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultPadding is the pixel margin reserved on every side of the viewport.
const DefaultPadding = 60.0

// Viewport is the pixel size of the drawing surface. Each side is bounded
// so a raster of it stays allocatable.
type Viewport struct {
	Width  float64 `json:"width" koanf:"width" validate:"gte=1,lte=16384"`
	Height float64 `json:"height" koanf:"height" validate:"gte=1,lte=16384"`
}

// Transform maps world coordinates to screen coordinates:
// screen = (world - min) * scale + offset.
type Transform struct {
	Scale   float64 `json:"scale"`
	MinX    float64 `json:"minX"`
	MinY    float64 `json:"minY"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Identity maps world coordinates unchanged.
var Identity = Transform{Scale: 1}

func (t Transform) min() r2.Vec    { return r2.Vec{X: t.MinX, Y: t.MinY} }
func (t Transform) offset() r2.Vec { return r2.Vec{X: t.OffsetX, Y: t.OffsetY} }

// ToScreen is the forward mapping.
func (t Transform) ToScreen(x, y float64) (float64, float64) {
	v := r2.Add(r2.Scale(t.Scale, r2.Sub(r2.Vec{X: x, Y: y}, t.min())), t.offset())
	return v.X, v.Y
}

// ToWorld is the exact inverse of ToScreen.
func (t Transform) ToWorld(sx, sy float64) (float64, float64) {
	v := r2.Add(r2.Scale(1/t.Scale, r2.Sub(r2.Vec{X: sx, Y: sy}, t.offset())), t.min())
	return v.X, v.Y
}

// Finite reports whether both coordinates are neither NaN nor infinite.
func Finite(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}

// Bounds returns the axis-aligned bounding box of the nodes' world coordinates.
// ok is false for an empty node set or when any coordinate is not finite.
func Bounds(nodes []*model.Node) (box r2.Box, ok bool) {
	if len(nodes) == 0 {
		return r2.Box{}, false
	}
	xs := make([]float64, len(nodes))
	ys := make([]float64, len(nodes))
	for i, n := range nodes {
		if !Finite(n.X, n.Y) {
			return r2.Box{}, false
		}
		xs[i], ys[i] = n.X, n.Y
	}
	return r2.NewBox(floats.Min(xs), floats.Min(ys), floats.Max(xs), floats.Max(ys)), true
}

// Fit computes the transform that centers the nodes' bounding box in vp with
// padding pixels on each side. ok is false when nodes is empty or no finite,
// positive scale fits them.
func Fit(nodes []*model.Node, vp Viewport, padding float64) (Transform, bool) {
	box, ok := Bounds(nodes)
	if !ok {
		return Transform{}, false
	}

	size := box.Size()
	if !Finite(size.X, size.Y) {
		return Transform{}, false
	}
	if size.X == 0 {
		size.X = 1
	}
	if size.Y == 0 {
		size.Y = 1
	}

	// A viewport smaller than twice the padding still gets a positive scale.
	canvas := r2.Vec{
		X: math.Max(vp.Width-2*padding, 1),
		Y: math.Max(vp.Height-2*padding, 1),
	}
	scale := math.Min(canvas.X/size.X, canvas.Y/size.Y)
	if !(scale > 0) || math.IsInf(scale, 0) {
		return Transform{}, false
	}

	// Leftover space on each axis is split evenly.
	used := r2.Scale(scale, size)
	offset := r2.Add(r2.Vec{X: padding, Y: padding}, r2.Scale(0.5, r2.Sub(canvas, used)))

	return Transform{
		Scale:   scale,
		MinX:    box.Min.X,
		MinY:    box.Min.Y,
		OffsetX: offset.X,
		OffsetY: offset.Y,
	}, true
}

// Apply writes display coordinates for every node except skip.
func (t Transform) Apply(nodes []*model.Node, skip *model.Node) {
	for _, n := range nodes {
		if n == skip {
			continue
		}
		n.DisplayX, n.DisplayY = t.ToScreen(n.X, n.Y)
	}
}
