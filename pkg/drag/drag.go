// Package drag implements the pointer-driven node drag state machine.
package drag

import (
	"context"

	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/transform"
)

// DefaultPickRadius is the screen distance within which a pointer-down grabs a node.
const DefaultPickRadius = 25.0

// Kind is a pointer event type
type Kind int

const (
	Down Kind = iota
	Move
	Up
)

var kindNames = [...]string{"down", "move", "up"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps "down", "move" or "up" to a Kind.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Event is a pointer event in screen coordinates
type Event struct {
	Kind Kind    `json:"-"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Result tells the caller what a transition did.
type Result struct {
	Changed bool                  // scene needs a redraw
	Commit  *model.PositionCommit // set on the release that ends a drag
}

// PositionSink receives the final world position of a dragged node.
type PositionSink interface {
	CommitPosition(ctx context.Context, commit model.PositionCommit) error
}

// Controller is Idle when Dragging() is nil.
type Controller struct {
	pickRadius float64
	allowed    func() bool
	node       *model.Node
}

// NewController creates a controller. allowed gates every pointer event;
// a nil predicate denies all drags.
func NewController(pickRadius float64, allowed func() bool) *Controller {
	if pickRadius <= 0 {
		pickRadius = DefaultPickRadius
	}
	return &Controller{pickRadius: pickRadius, allowed: allowed}
}

// Dragging returns the node under drag, or nil when idle
func (c *Controller) Dragging() *model.Node {
	return c.node
}

// Handle applies one pointer event. nodes is searched in order on Down and
// the first node within the pick radius is grabbed. Down and Move events
// whose screen or world position is not finite are ignored.
func (c *Controller) Handle(ev Event, nodes []*model.Node, t transform.Transform) Result {
	if c.allowed == nil || !c.allowed() {
		return Result{}
	}

	if ev.Kind != Up && !transform.Finite(ev.X, ev.Y) {
		return Result{}
	}

	switch ev.Kind {
	case Down:
		if c.node != nil {
			return Result{}
		}
		if n := c.pick(ev.X, ev.Y, nodes); n != nil {
			c.node = n
		}
		return Result{}

	case Move:
		if c.node == nil {
			return Result{}
		}
		wx, wy := t.ToWorld(ev.X, ev.Y)
		if !transform.Finite(wx, wy) {
			return Result{}
		}
		c.node.DisplayX, c.node.DisplayY = ev.X, ev.Y
		c.node.X, c.node.Y = wx, wy
		return Result{Changed: true}

	case Up:
		if c.node == nil {
			return Result{}
		}
		commit := &model.PositionCommit{Name: c.node.Name, X: c.node.X, Y: c.node.Y}
		c.node = nil
		return Result{Changed: true, Commit: commit}
	}
	return Result{}
}

func (c *Controller) pick(x, y float64, nodes []*model.Node) *model.Node {
	r2 := c.pickRadius * c.pickRadius
	for _, n := range nodes {
		dx, dy := n.DisplayX-x, n.DisplayY-y
		if dx*dx+dy*dy < r2 {
			return n
		}
	}
	return nil
}

// Rebind points an active drag at the node with the same id after the
// store was replaced, keeping the dragged world position. The drag is
// dropped when the node no longer exists.
func (c *Controller) Rebind(lookup func(model.NodeID) (*model.Node, bool)) {
	if c.node == nil {
		return
	}
	n, ok := lookup(c.node.ID)
	if !ok {
		c.node = nil
		return
	}
	n.X, n.Y = c.node.X, c.node.Y
	n.DisplayX, n.DisplayY = c.node.DisplayX, c.node.DisplayY
	c.node = n
}

// Cancel drops any active drag without committing
func (c *Controller) Cancel() {
	c.node = nil
}
