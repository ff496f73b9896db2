package graph

import (
	"math"
	"sort"

	"github.com/ritzau/hubmap/pkg/model"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Route is a resolvable edge as listed in the route manager.
type Route struct {
	Key     string  `json:"key"` // "Source-Target" by hub name
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Weight  float64 `json:"weight"`
	Blocked bool    `json:"blocked"`
}

// Store holds the current nodes and edges in world coordinates.
// Node order is the snapshot order and is what hit-testing and rendering iterate.
type Store struct {
	nodes  []*model.Node
	edges  []model.Edge
	byID   map[model.NodeID]*model.Node
	byName map[string]*model.Node
	index  *simple.WeightedUndirectedGraph
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	s.Replace(model.NetworkSnapshot{})
	return s
}

// Replace swaps the whole network for snap. Display coordinates start at zero
// and are filled in by the next fit.
func (s *Store) Replace(snap model.NetworkSnapshot) {
	s.nodes = make([]*model.Node, 0, len(snap.Nodes))
	s.edges = make([]model.Edge, len(snap.Edges))
	copy(s.edges, snap.Edges)
	s.byID = make(map[model.NodeID]*model.Node, len(snap.Nodes))
	s.byName = make(map[string]*model.Node, len(snap.Nodes))
	s.index = simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	for i := range snap.Nodes {
		n := snap.Nodes[i]
		n.DisplayX, n.DisplayY = 0, 0
		node := &n
		s.nodes = append(s.nodes, node)

		// First occurrence wins for lookups; duplicates still render.
		if _, exists := s.byID[node.ID]; !exists {
			s.byID[node.ID] = node
			s.index.AddNode(simple.Node(node.ID))
		}
		if _, exists := s.byName[node.Name]; !exists {
			s.byName[node.Name] = node
		}
	}

	for _, e := range s.edges {
		if e.Source == e.Target {
			continue
		}
		if s.byID[e.Source] == nil || s.byID[e.Target] == nil {
			continue
		}
		s.index.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(e.Source),
			T: simple.Node(e.Target),
			W: e.Weight,
		})
	}
}

// Len returns the number of nodes
func (s *Store) Len() int {
	return len(s.nodes)
}

// Nodes returns the nodes in store order. The pointers are live.
func (s *Store) Nodes() []*model.Node {
	return s.nodes
}

// Edges returns all edges, including ones whose endpoints are missing.
func (s *Store) Edges() []model.Edge {
	return s.edges
}

// Node looks a node up by id
func (s *Store) Node(id model.NodeID) (*model.Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// NodeByName looks a node up by hub name
func (s *Store) NodeByName(name string) (*model.Node, bool) {
	n, ok := s.byName[name]
	return n, ok
}

// Endpoints resolves both ends of e. ok is false if either is absent.
func (s *Store) Endpoints(e model.Edge) (source, target *model.Node, ok bool) {
	source, sok := s.byID[e.Source]
	target, tok := s.byID[e.Target]
	return source, target, sok && tok
}

// Resolve maps hub names to nodes index for index. Names not in the store
// resolve to nil so callers can tell a gap from adjacency.
func (s *Store) Resolve(names []string) []*model.Node {
	out := make([]*model.Node, len(names))
	for i, name := range names {
		out[i] = s.byName[name]
	}
	return out
}

// Routes lists resolvable edges in snapshot order
func (s *Store) Routes() []Route {
	routes := make([]Route, 0, len(s.edges))
	for _, e := range s.edges {
		a, b, ok := s.Endpoints(e)
		if !ok {
			continue
		}
		routes = append(routes, Route{
			Key:     a.Name + "-" + b.Name,
			Source:  a.Name,
			Target:  b.Name,
			Weight:  e.Weight,
			Blocked: e.Blocked,
		})
	}
	return routes
}

// Dangling returns edges that reference a node id absent from the store
func (s *Store) Dangling() []model.Edge {
	var dangling []model.Edge
	for _, e := range s.edges {
		if _, _, ok := s.Endpoints(e); !ok {
			dangling = append(dangling, e)
		}
	}
	return dangling
}

// Neighbors returns the names of hubs directly connected to name, sorted.
func (s *Store) Neighbors(name string) []string {
	n, ok := s.byName[name]
	if !ok {
		return nil
	}

	var names []string
	for _, neighbor := range graph.NodesOf(s.index.From(int64(n.ID))) {
		if other, ok := s.byID[model.NodeID(neighbor.ID())]; ok {
			names = append(names, other.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Distance returns the weight of the route joining a and b, if any.
func (s *Store) Distance(a, b string) (float64, bool) {
	na, ok := s.byName[a]
	if !ok {
		return 0, false
	}
	nb, ok := s.byName[b]
	if !ok || na.ID == nb.ID {
		return 0, false
	}
	return s.index.Weight(int64(na.ID), int64(nb.ID))
}
