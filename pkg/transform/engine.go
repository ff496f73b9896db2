package transform

import (
	"github.com/ritzau/hubmap/pkg/model"
)

// Engine owns the active transform and the viewport it was computed for.
// Forward and inverse mappings always use the same instance.
type Engine struct {
	viewport Viewport
	padding  float64
	current  Transform
	fitted   bool
}

// NewEngine creates an engine for the given viewport
func NewEngine(vp Viewport, padding float64) *Engine {
	return &Engine{viewport: vp, padding: padding, current: Identity}
}

// Resize records a new viewport size. Callers re-fit before the next render.
func (e *Engine) Resize(vp Viewport) {
	e.viewport = vp
}

// Viewport returns the current viewport
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// Current returns the last applied transform
func (e *Engine) Current() Transform {
	return e.current
}

// Fitted reports whether a fit has been applied yet
func (e *Engine) Fitted() bool {
	return e.fitted
}

// Fit recomputes the transform from nodes and rewrites display coordinates of
// every node except dragged. An empty node set leaves the previous transform.
func (e *Engine) Fit(nodes []*model.Node, dragged *model.Node) bool {
	t, ok := Fit(nodes, e.viewport, e.padding)
	if !ok {
		return false
	}
	e.current = t
	e.fitted = true
	t.Apply(nodes, dragged)
	return true
}

// ToWorld maps a screen point through the current transform
func (e *Engine) ToWorld(sx, sy float64) (float64, float64) {
	return e.current.ToWorld(sx, sy)
}
