package graph

import (
	"testing"

	"github.com/ritzau/hubmap/pkg/model"
)

func sampleSnapshot() model.NetworkSnapshot {
	return model.NetworkSnapshot{
		Nodes: []model.Node{
			{ID: 1, Name: "Karachi", X: 0, Y: 0},
			{ID: 2, Name: "Lahore", X: 100, Y: 40},
			{ID: 3, Name: "Quetta", X: 30, Y: 90},
		},
		Edges: []model.Edge{
			{Source: 1, Target: 2, Weight: 1200},
			{Source: 2, Target: 3, Weight: 850, Blocked: true},
			{Source: 3, Target: 99, Weight: 10},
		},
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if s.Len() != 0 {
		t.Errorf("New store should have 0 nodes, got %d", s.Len())
	}
}

func TestReplaceKeepsOrder(t *testing.T) {
	s := NewStore()
	s.Replace(sampleSnapshot())

	if s.Len() != 3 {
		t.Fatalf("Expected 3 nodes, got %d", s.Len())
	}
	want := []string{"Karachi", "Lahore", "Quetta"}
	for i, n := range s.Nodes() {
		if n.Name != want[i] {
			t.Errorf("node %d = %s, want %s", i, n.Name, want[i])
		}
	}
	if len(s.Edges()) != 3 {
		t.Errorf("Expected all 3 edges kept, got %d", len(s.Edges()))
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	s := NewStore()
	s.Replace(sampleSnapshot())
	s.Replace(model.NetworkSnapshot{Nodes: []model.Node{{ID: 7, Name: "Multan"}}})

	if s.Len() != 1 {
		t.Fatalf("Expected 1 node after replace, got %d", s.Len())
	}
	if _, ok := s.NodeByName("Karachi"); ok {
		t.Error("Karachi should be gone after replace")
	}
	if len(s.Routes()) != 0 {
		t.Errorf("Expected no routes, got %d", len(s.Routes()))
	}
}

func TestReplaceDoesNotAliasSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	s := NewStore()
	s.Replace(snap)

	n, _ := s.NodeByName("Karachi")
	n.X = 500
	if snap.Nodes[0].X != 0 {
		t.Error("store mutation leaked into the snapshot")
	}
}

func TestEndpointsAndDangling(t *testing.T) {
	s := NewStore()
	s.Replace(sampleSnapshot())

	a, b, ok := s.Endpoints(s.Edges()[0])
	if !ok || a.Name != "Karachi" || b.Name != "Lahore" {
		t.Errorf("Endpoints() = %v, %v, %v", a, b, ok)
	}

	if _, _, ok := s.Endpoints(s.Edges()[2]); ok {
		t.Error("edge to missing node 99 should not resolve")
	}

	dangling := s.Dangling()
	if len(dangling) != 1 || dangling[0].Target != 99 {
		t.Errorf("Dangling() = %v", dangling)
	}
}

func TestRoutes(t *testing.T) {
	s := NewStore()
	s.Replace(sampleSnapshot())

	routes := s.Routes()
	if len(routes) != 2 {
		t.Fatalf("Expected 2 resolvable routes, got %d", len(routes))
	}
	if routes[0].Key != "Karachi-Lahore" || routes[0].Weight != 1200 {
		t.Errorf("unexpected first route %+v", routes[0])
	}
	if !routes[1].Blocked {
		t.Error("Lahore-Quetta should be blocked")
	}
}

func TestNeighborsAndDistance(t *testing.T) {
	s := NewStore()
	s.Replace(sampleSnapshot())

	got := s.Neighbors("Lahore")
	if len(got) != 2 || got[0] != "Karachi" || got[1] != "Quetta" {
		t.Errorf("Neighbors(Lahore) = %v", got)
	}
	if s.Neighbors("Nowhere") != nil {
		t.Error("unknown hub should have no neighbors")
	}

	d, ok := s.Distance("Lahore", "Karachi")
	if !ok || d != 1200 {
		t.Errorf("Distance() = %v, %v", d, ok)
	}
	if _, ok := s.Distance("Karachi", "Quetta"); ok {
		t.Error("Karachi and Quetta are not directly connected")
	}
}

func TestResolveKeepsGaps(t *testing.T) {
	s := NewStore()
	s.Replace(sampleSnapshot())

	nodes := s.Resolve([]string{"Karachi", "Atlantis", "Quetta"})
	if len(nodes) != 3 {
		t.Fatalf("Resolve() returned %d entries, want 3", len(nodes))
	}
	if nodes[0] == nil || nodes[0].Name != "Karachi" {
		t.Errorf("nodes[0] = %v, want Karachi", nodes[0])
	}
	if nodes[1] != nil {
		t.Errorf("missing hub should resolve to nil, got %v", nodes[1])
	}
	if nodes[2] == nil || nodes[2].Name != "Quetta" {
		t.Errorf("nodes[2] = %v, want Quetta", nodes[2])
	}
}

func TestDuplicateIDsDoNotPanic(t *testing.T) {
	s := NewStore()
	s.Replace(model.NetworkSnapshot{
		Nodes: []model.Node{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}},
		Edges: []model.Edge{{Source: 1, Target: 1, Weight: 3}},
	})
	if s.Len() != 2 {
		t.Errorf("Expected both nodes kept, got %d", s.Len())
	}
	n, _ := s.Node(1)
	if n.Name != "A" {
		t.Errorf("first occurrence should win lookups, got %s", n.Name)
	}
}
