package model

import "fmt"

// NodeID identifies a hub in the network snapshot.
type NodeID int64

// Node is a hub location. X and Y are world coordinates and are the only
// persisted position; DisplayX and DisplayY are viewport pixels derived by
// the transform engine (or, for a node under drag, driven by the pointer).
type Node struct {
	ID   NodeID  `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name" validate:"required"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`

	DisplayX float64 `json:"-" yaml:"-"`
	DisplayY float64 `json:"-" yaml:"-"`
}

// Edge is an undirected route between two hubs.
type Edge struct {
	Source  NodeID  `json:"source" yaml:"source"`
	Target  NodeID  `json:"target" yaml:"target"`
	Weight  float64 `json:"weight" yaml:"weight" validate:"gte=0"`
	Blocked bool    `json:"blocked" yaml:"blocked"`
}

// DistanceLabel is the text shown in the pill at the edge midpoint.
func (e Edge) DistanceLabel() string {
	return fmt.Sprintf("%g km", e.Weight)
}

// NetworkSnapshot is the wholesale network state handed to the engine.
type NetworkSnapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// PositionCommit is emitted to the external sink when a drag completes.
type PositionCommit struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PathSnapshot is a shortest path already resolved by the backend.
type PathSnapshot struct {
	Found    bool     `json:"found" yaml:"found"`
	Path     []string `json:"path" yaml:"path"`
	Distance float64  `json:"distance" yaml:"distance"`
}
