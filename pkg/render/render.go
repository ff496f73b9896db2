package render

import (
	"fmt"

	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/model"
)

// Geometry
const (
	NodeRadius        = 20.0
	CurrentNodeRadius = 26.0
	ringGap           = 3.0
	nodeBorderWidth   = 3.0
	highlightBoost    = 20.0 // percent

	edgeWidth        = 3.0
	mutedEdgeWidth   = 2.0
	historyLineWidth = 5.0
	futureLineWidth  = 4.0
	pathLineWidth    = 5.0

	labelPadding    = 8.0
	edgeLabelHeight = 16.0
	edgeLabelRadius = 8.0
	nodeLabelOffset = 12.0
	nodeLabelHeight = 22.0
	nodeLabelRadius = 6.0
	captionMargin   = 24.0
)

var (
	blockedDash = []float64{8, 8}
	futureDash  = []float64{12, 8}

	edgeLabelFont = Font{Size: 12, Bold: true}
	nodeLabelFont = Font{Size: 14, Bold: true}
	captionFont   = Font{Size: 14, Bold: true}
)

// TrackingView is the navigator state the overlays and node styling read.
type TrackingView struct {
	History []string // visited stops, oldest first; the last is the viewer's position
	Future  []string // planned stops
	Current string   // the package's reported location; the future line starts here
}

// Top returns the last history stop, or "" when history is empty.
func (v *TrackingView) Top() string {
	if v == nil || len(v.History) == 0 {
		return ""
	}
	return v.History[len(v.History)-1]
}

// Overlay is the optional route state drawn over the network.
type Overlay struct {
	Tracking *TrackingView
	Path     *model.PathSnapshot
}

// Render clears c and draws edges, overlays, then nodes with labels.
func Render(c Canvas, store *graph.Store, ov Overlay) {
	c.Clear(Background)

	tracking := ov.Tracking != nil
	drawEdges(c, store, tracking)

	if tracking {
		drawTracking(c, store, ov.Tracking)
	} else if ov.Path != nil && ov.Path.Found {
		drawPath(c, store, ov.Path)
	}

	drawNodes(c, store, ov.Tracking)
}

func drawEdges(c Canvas, store *graph.Store, tracking bool) {
	for _, e := range store.Edges() {
		a, b, ok := store.Endpoints(e)
		if !ok {
			continue
		}

		stroke := Stroke{Color: EdgeDefault, Width: edgeWidth}
		switch {
		case e.Blocked:
			stroke = Stroke{Color: EdgeBlocked, Width: edgeWidth, Dash: blockedDash}
		case tracking:
			stroke = Stroke{Color: EdgeMuted, Width: mutedEdgeWidth}
		}
		c.Line(a.DisplayX, a.DisplayY, b.DisplayX, b.DisplayY, stroke)

		if !tracking {
			mx := (a.DisplayX + b.DisplayX) / 2
			my := (a.DisplayY + b.DisplayY) / 2
			label := e.DistanceLabel()
			w := c.TextWidth(label, edgeLabelFont) + 2*labelPadding
			c.Pill(mx-w/2, my-edgeLabelHeight/2, w, edgeLabelHeight, edgeLabelRadius, LabelBackground)
			c.Text(label, mx, my, edgeLabelFont, EdgeLabelText)
		}
	}
}

func drawTracking(c Canvas, store *graph.Store, v *TrackingView) {
	polyline(c, store.Resolve(v.History), Stroke{Color: HistoryLine, Width: historyLineWidth})

	future := make([]string, 0, len(v.Future)+1)
	future = append(future, v.Current)
	future = append(future, v.Future...)
	polyline(c, store.Resolve(future), Stroke{Color: FutureLine, Width: futureLineWidth, Dash: futureDash})
}

func drawPath(c Canvas, store *graph.Store, p *model.PathSnapshot) {
	polyline(c, store.Resolve(p.Path), Stroke{Color: PathLine, Width: pathLineWidth})

	w, _ := c.Size()
	caption := fmt.Sprintf("Shortest path: %g km", p.Distance)
	tw := c.TextWidth(caption, captionFont) + 2*labelPadding
	c.Pill(w/2-tw/2, captionMargin-nodeLabelHeight/2, tw, nodeLabelHeight, nodeLabelRadius, LabelBackground)
	c.Text(caption, w/2, captionMargin, captionFont, PathLine)
}

// polyline draws a segment for each consecutive pair of stops. A segment
// with a missing end is skipped rather than bridged to the next known stop.
func polyline(c Canvas, points []*model.Node, s Stroke) {
	if len(points) < 2 {
		return
	}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if a == nil || b == nil {
			continue
		}
		c.Line(a.DisplayX, a.DisplayY, b.DisplayX, b.DisplayY, s)
	}
}

func drawNodes(c Canvas, store *graph.Store, v *TrackingView) {
	visited := make(map[string]bool)
	top := ""
	if v != nil {
		for _, city := range v.History {
			visited[city] = true
		}
		top = v.Top()
	}

	for _, n := range store.Nodes() {
		base, r := NodeDefault, NodeRadius
		switch {
		case v != nil && n.Name == top:
			base, r = NodeCurrent, CurrentNodeRadius
		case visited[n.Name]:
			base = NodeVisited
		}

		c.Circle(n.DisplayX, n.DisplayY, r+ringGap, Fill{Color: NodeRing}, Stroke{})
		c.Circle(n.DisplayX, n.DisplayY, r,
			Fill{Color: base, Highlight: Brighten(base, highlightBoost), Radial: true},
			Stroke{Color: White, Width: nodeBorderWidth})

		labelY := n.DisplayY + r + nodeLabelOffset
		w := c.TextWidth(n.Name, nodeLabelFont) + 2*labelPadding
		c.Pill(n.DisplayX-w/2, labelY-nodeLabelHeight/2, w, nodeLabelHeight, nodeLabelRadius, LabelBackground)
		c.Text(n.Name, n.DisplayX, labelY, nodeLabelFont, NodeLabelText)
	}
}
