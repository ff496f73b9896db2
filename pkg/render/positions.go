package render

import (
	"sort"

	"github.com/ritzau/hubmap/pkg/model"
)

// Position is a node's screen position in a rendered scene
type Position struct {
	ID model.NodeID `json:"id"`
	X  float64      `json:"x"`
	Y  float64      `json:"y"`
}

// Positions captures the display coordinates of nodes, keyed by id.
func Positions(nodes []*model.Node) map[model.NodeID]Position {
	out := make(map[model.NodeID]Position, len(nodes))
	for _, n := range nodes {
		out[n.ID] = Position{ID: n.ID, X: n.DisplayX, Y: n.DisplayY}
	}
	return out
}

// Moved returns the ids whose position differs between old and cur, plus
// ids present in only one of them, in ascending id order.
func Moved(old, cur map[model.NodeID]Position) []model.NodeID {
	var moved []model.NodeID
	for id, p := range cur {
		if q, ok := old[id]; !ok || p != q {
			moved = append(moved, id)
		}
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			moved = append(moved, id)
		}
	}
	sort.Slice(moved, func(i, j int) bool { return moved[i] < moved[j] })
	return moved
}
