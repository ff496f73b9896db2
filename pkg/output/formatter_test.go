package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/timeline"
)

func init() {
	color.NoColor = true
}

func TestNetworkReport(t *testing.T) {
	store := graph.NewStore()
	store.Replace(model.NetworkSnapshot{
		Nodes: []model.Node{
			{ID: 1, Name: "A", X: 0, Y: 0},
			{ID: 2, Name: "B", X: 100, Y: 0},
		},
		Edges: []model.Edge{
			{Source: 1, Target: 2, Weight: 100, Blocked: true},
			{Source: 1, Target: 9, Weight: 5},
		},
	})

	var buf bytes.Buffer
	PrintNetworkReport(&buf, "file:net.json", store)
	out := buf.String()

	for _, want := range []string{
		"Source: file:net.json",
		"Hubs: 2",
		"Routes: 1",
		"Blocked: 1 route(s)",
		"A-B 100 km [blocked]",
		"A (0, 0) -> [B]",
		"DANGLING EDGES: 1",
		"1-9",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "✓") {
		t.Error("check mark should only show for a clean network")
	}
}

func TestNetworkReportClean(t *testing.T) {
	store := graph.NewStore()
	store.Replace(model.NetworkSnapshot{Nodes: []model.Node{{ID: 1, Name: "A"}}})

	var buf bytes.Buffer
	PrintNetworkReport(&buf, "mock", store)
	if !strings.Contains(buf.String(), "✓ All routes are open") {
		t.Errorf("expected clean summary:\n%s", buf.String())
	}
}

func TestTrackingPanel(t *testing.T) {
	session, err := timeline.Start(model.TrackingSnapshot{
		Found:    true,
		ID:       11,
		Status:   model.Status(42),
		Sender:   "Ann",
		Receiver: "Bo",
		Address:  "Main St 1",
		Current:  "B",
		History:  []model.Stop{{City: "A", Time: "2024-03-01 09:15"}, {City: "B"}},
	})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var buf bytes.Buffer
	PrintTrackingPanel(&buf, session.Panel())
	out := buf.String()

	for _, want := range []string{"Package #11 [?]", "To: Bo, Main St 1", "A 09:15", timeline.NoPlanMarker} {
		if !strings.Contains(out, want) {
			t.Errorf("panel missing %q:\n%s", want, out)
		}
	}
}
