package timeline

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ritzau/hubmap/pkg/model"
)

func stops(cities ...string) []model.Stop {
	out := make([]model.Stop, len(cities))
	for i, c := range cities {
		out[i] = model.Stop{City: c, Time: fmt.Sprintf("2024-05-%02d 10:%02d", i+1, i)}
	}
	return out
}

func TestNavigationScenario(t *testing.T) {
	s, err := Start(model.TrackingSnapshot{
		Found:   true,
		ID:      7,
		Current: "Z",
		History: stops("X", "Y", "Z"),
		Future:  []string{"W"},
	})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	nav := s.Navigator()
	original := nav.History()

	if nav.CurrentCity() != "Z" {
		t.Errorf("CurrentCity() = %s, want Z", nav.CurrentCity())
	}

	if !nav.Back() {
		t.Fatal("Back() should move a stop")
	}
	if got := s.HistoryCities(); !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Errorf("history = %v, want [X Y]", got)
	}
	if f := nav.Future(); len(f) != 1 || f[0].City != "Z" {
		t.Errorf("future = %v, want [Z]", f)
	}
	if nav.CurrentCity() != "Y" {
		t.Errorf("CurrentCity() = %s, want Y", nav.CurrentCity())
	}

	nav.Forward()
	if !reflect.DeepEqual(nav.History(), original) || len(nav.Future()) != 0 {
		t.Errorf("forward should restore original state, got %v / %v", nav.History(), nav.Future())
	}
	if !reflect.DeepEqual(s.Planned, []string{"W"}) {
		t.Errorf("planned route changed: %v", s.Planned)
	}
}

func TestRoundTripAndConservation(t *testing.T) {
	for n := 1; n <= 6; n++ {
		cities := []string{"A", "B", "C", "D", "E", "F"}[:n]
		history := stops(cities...)
		nav := NewNavigator(history)

		for i := 0; i < n-1; i++ {
			if !nav.Back() {
				t.Fatalf("n=%d: Back() #%d failed", n, i)
			}
			if nav.Len() != n {
				t.Fatalf("n=%d: conservation broken, len=%d", n, nav.Len())
			}
		}
		if nav.Back() {
			t.Errorf("n=%d: origin stop should not be removable", n)
		}
		if nav.CurrentCity() != "A" {
			t.Errorf("n=%d: CurrentCity() = %s, want A", n, nav.CurrentCity())
		}

		for i := 0; i < n-1; i++ {
			nav.Forward()
			if nav.Len() != n {
				t.Fatalf("n=%d: conservation broken, len=%d", n, nav.Len())
			}
		}
		if nav.Forward() {
			t.Errorf("n=%d: Forward() past the end should be a no-op", n)
		}
		if !reflect.DeepEqual(nav.History(), history) || len(nav.Future()) != 0 {
			t.Errorf("n=%d: round trip did not restore history", n)
		}
	}
}

func TestPartialRoundTrip(t *testing.T) {
	nav := NewNavigator(stops("A", "B", "C", "D", "E"))
	nav.Back()
	before, beforeFuture := nav.History(), nav.Future()

	nav.Back()
	nav.Back()
	nav.Forward()
	nav.Forward()

	if !reflect.DeepEqual(nav.History(), before) || !reflect.DeepEqual(nav.Future(), beforeFuture) {
		t.Errorf("k backs then k forwards should restore both stacks")
	}
}

func TestNavigatorCopiesInput(t *testing.T) {
	history := stops("A", "B")
	nav := NewNavigator(history)
	history[1].City = "Mutated"

	if nav.CurrentCity() != "B" {
		t.Error("navigator should hold its own copy of history")
	}
	got := nav.History()
	got[0].City = "Mutated"
	if nav.History()[0].City != "A" {
		t.Error("History() should return a copy")
	}
}

func TestStartNotFound(t *testing.T) {
	_, err := Start(model.TrackingSnapshot{Found: false, ID: 99})
	if !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestStartSeedsEmptyHistory(t *testing.T) {
	s, err := Start(model.TrackingSnapshot{Found: true, Current: "Karachi"})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if s.Navigator().CurrentCity() != "Karachi" || s.Navigator().Len() != 1 {
		t.Errorf("expected origin seeded from current, got %v", s.Navigator().History())
	}

	if _, err := Start(model.TrackingSnapshot{Found: true}); !errors.Is(err, ErrEmptyHistory) {
		t.Errorf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestPanel(t *testing.T) {
	s, err := Start(model.TrackingSnapshot{
		Found:    true,
		ID:       3,
		Status:   model.Status(9),
		Sender:   "Ali",
		Receiver: "Sara",
		Current:  "Y",
		History:  []model.Stop{{City: "X", Time: "2024-01-01 08:30"}, {City: "Y", Time: "2024-01-02"}},
	})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	p := s.Panel()
	if p.Status != model.UnknownStatus {
		t.Errorf("Status = %q, want unknown marker", p.Status)
	}
	if len(p.Planned) != 1 || p.Planned[0] != NoPlanMarker {
		t.Errorf("Planned = %v", p.Planned)
	}
	if p.Visited[0].Clock != "08:30" || p.Visited[1].Clock != "" {
		t.Errorf("Visited = %+v", p.Visited)
	}
	if !p.CanBack || p.CanForward {
		t.Errorf("CanBack=%v CanForward=%v", p.CanBack, p.CanForward)
	}

	s.Navigator().Back()
	p = s.Panel()
	if p.Viewing != "X" || p.Location != "Y" {
		t.Errorf("Viewing=%s Location=%s", p.Viewing, p.Location)
	}
}
