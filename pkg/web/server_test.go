package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ritzau/hubmap/pkg/backend"
	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/engine"
	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
	"github.com/ritzau/hubmap/pkg/timeline"
	"github.com/ritzau/hubmap/pkg/transform"
)

func network() model.NetworkSnapshot {
	return model.NetworkSnapshot{
		Nodes: []model.Node{
			{ID: 1, Name: "A", X: 0, Y: 0},
			{ID: 2, Name: "B", X: 100, Y: 0},
			{ID: 3, Name: "C", X: 200, Y: 0},
		},
		Edges: []model.Edge{
			{Source: 1, Target: 2, Weight: 100},
			{Source: 2, Target: 3, Weight: 100, Blocked: true},
		},
	}
}

type fixture struct {
	server *httptest.Server
	client *backend.MockClient
}

func newFixture(t *testing.T, capability model.Capability) *fixture {
	t.Helper()
	client := backend.NewMockClient(network())
	client.Packages[7] = model.TrackingSnapshot{
		Found:   true,
		ID:      7,
		Status:  model.StatusInTransit,
		Current: "C",
		History: []model.Stop{{City: "A", Time: "2024-01-01 08:00"}, {City: "B"}, {City: "C"}},
		Future:  []string{"A"},
	}
	client.Paths["A-C"] = model.PathSnapshot{Found: true, Path: []string{"A", "B", "C"}, Distance: 200}

	pub := pubsub.NewScenePublisher()
	state := engine.NewState(engine.Options{
		Viewport:   transform.Viewport{Width: 400, Height: 200},
		Padding:    50,
		PickRadius: drag.DefaultPickRadius,
		Capability: capability,
	})
	eng := engine.New(state, pub, client)
	loader := engine.NewLoader(client, client, eng, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	if err := loader.Refresh(ctx, "test"); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	srv := httptest.NewServer(NewServer(eng, loader, pub).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		pub.Close()
	})
	return &fixture{server: srv, client: client}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestSceneJSON(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	resp := f.do(t, "GET", "/api/scene", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	scene := decode[SceneData](t, resp)
	if scene.Hash == "" || scene.Width != 400 || scene.Height != 200 {
		t.Errorf("unexpected scene header %+v", scene)
	}

	circles := 0
	for _, op := range scene.Ops {
		if op.Kind == "circle" {
			circles++
		}
	}
	// ring + body per node
	if circles != 6 {
		t.Errorf("expected 6 circles, got %d", circles)
	}
}

func TestScenePNGUsesETag(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	resp := f.do(t, "GET", "/api/scene.png", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("unexpected image size %v", b)
	}

	etag := resp.Header.Get("ETag")
	req, _ := http.NewRequest("GET", f.server.URL+"/api/scene.png", nil)
	req.Header.Set("If-None-Match", etag)
	again, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotModified {
		t.Errorf("expected 304 for unchanged scene, got %d", again.StatusCode)
	}
}

func TestViewportRefits(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	resp := f.do(t, "POST", "/api/viewport", transform.Viewport{Width: 800, Height: 600})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	scene := decode[SceneData](t, resp)
	if scene.Width != 800 || scene.Height != 600 {
		t.Errorf("expected resized scene, got %vx%v", scene.Width, scene.Height)
	}

	for name, vp := range map[string]transform.Viewport{
		"zero width":   {Width: 0, Height: 600},
		"oversized":    {Width: 100000, Height: 100000},
		"sub-pixel":    {Width: 0.5, Height: 600},
		"tall overrun": {Width: 800, Height: 16385},
	} {
		bad := f.do(t, "POST", "/api/viewport", vp)
		if bad.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, bad.StatusCode)
		}
	}

	scene = decode[SceneData](t, f.do(t, "GET", "/api/scene", nil))
	if scene.Width != 800 || scene.Height != 600 {
		t.Errorf("rejected viewports should not resize, got %vx%v", scene.Width, scene.Height)
	}
}

func TestPointerDragCommits(t *testing.T) {
	f := newFixture(t, model.CapabilityAdmin)

	// Node A sits at (50, 99.25) on a 400x200 viewport with padding 50
	res := decode[PointerResult](t, f.do(t, "POST", "/api/pointer/down", map[string]float64{"x": 52, "y": 100}))
	if res.Dragging != "A" {
		t.Fatalf("expected to grab A, got %+v", res)
	}
	res = decode[PointerResult](t, f.do(t, "POST", "/api/pointer/move", map[string]float64{"x": 80, "y": 40}))
	if !res.Redrawn {
		t.Error("move should redraw")
	}
	res = decode[PointerResult](t, f.do(t, "POST", "/api/pointer/up", map[string]float64{"x": 80, "y": 40}))
	if res.Commit == nil || res.Commit.Name != "A" || res.Dragging != "" {
		t.Fatalf("expected commit for A, got %+v", res)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.client.CommitCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.client.CommitCount() != 1 {
		t.Errorf("expected 1 commit at the backend, got %d", f.client.CommitCount())
	}

	if resp := f.do(t, "POST", "/api/pointer/hover", map[string]float64{}); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown pointer kind, got %d", resp.StatusCode)
	}
}

func TestPointerIgnoredForGuests(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	res := decode[PointerResult](t, f.do(t, "POST", "/api/pointer/down", map[string]float64{"x": 52, "y": 100}))
	if res.Dragging != "" || res.Redrawn {
		t.Errorf("guest should not drag, got %+v", res)
	}
}

func TestPointerWebsocket(t *testing.T) {
	f := newFixture(t, model.CapabilityAdmin)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/pointer"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	steps := []PointerMessage{
		{Type: "down", X: 52, Y: 100},
		{Type: "move", X: 90, Y: 60},
		{Type: "up", X: 90, Y: 60},
	}
	var results []PointerResult
	for _, msg := range steps {
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("WriteJSON() error: %v", err)
		}
		var res PointerResult
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&res); err != nil {
			t.Fatalf("ReadJSON() error: %v", err)
		}
		results = append(results, res)
	}

	if results[0].Dragging != "A" {
		t.Errorf("expected drag of A, got %+v", results[0])
	}
	if !results[1].Redrawn {
		t.Error("move should redraw")
	}
	if results[2].Commit == nil {
		t.Error("release should commit")
	}
}

func TestTrackingLifecycle(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	if resp := f.do(t, "GET", "/api/tracking", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without a session, got %d", resp.StatusCode)
	}

	resp := f.do(t, "POST", "/api/track/7", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	panel := decode[timeline.Panel](t, resp)
	if panel.PackageID != 7 || panel.Status != "In Transit" || panel.Viewing != "C" {
		t.Errorf("unexpected panel %+v", panel)
	}
	if len(panel.Visited) != 3 || panel.Visited[0].Clock != "08:00" {
		t.Errorf("unexpected visited list %+v", panel.Visited)
	}

	panel = decode[timeline.Panel](t, f.do(t, "POST", "/api/track/back", nil))
	if panel.Viewing != "B" || !panel.CanForward {
		t.Errorf("expected to view B after back, got %+v", panel)
	}
	panel = decode[timeline.Panel](t, f.do(t, "POST", "/api/track/forward", nil))
	if panel.Viewing != "C" {
		t.Errorf("expected to view C after forward, got %s", panel.Viewing)
	}

	// A missing package leaves the session alone
	missing := f.do(t, "POST", "/api/track/99", nil)
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown package, got %d", missing.StatusCode)
	}
	if resp := f.do(t, "GET", "/api/tracking", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("session should survive a failed lookup, got %d", resp.StatusCode)
	}

	if resp := f.do(t, "DELETE", "/api/track", nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if resp := f.do(t, "GET", "/api/tracking", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", resp.StatusCode)
	}
}

func TestPathMissingOnHTTPBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/map", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(network())
	})
	mux.HandleFunc("/api/path", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)
	client := backend.NewHTTPClient(upstream.URL+"/api/", 2*time.Second)

	pub := pubsub.NewScenePublisher()
	state := engine.NewState(engine.Options{
		Viewport:   transform.Viewport{Width: 400, Height: 200},
		Padding:    50,
		PickRadius: drag.DefaultPickRadius,
		Capability: model.CapabilityGuest,
	})
	eng := engine.New(state, pub, client)
	loader := engine.NewLoader(client, client, eng, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()
	if err := loader.Refresh(ctx, "test"); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	srv := httptest.NewServer(NewServer(eng, loader, pub).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		pub.Close()
	})

	req, err := http.NewRequest("POST", srv.URL+"/api/path?start=A&end=Q", nil)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/path failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 when the backend has no path, got %d", resp.StatusCode)
	}
}

func TestPathEndpoints(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	resp := f.do(t, "POST", "/api/path?start=A&end=C", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	path := decode[model.PathSnapshot](t, resp)
	if path.Distance != 200 || len(path.Path) != 3 {
		t.Errorf("unexpected path %+v", path)
	}

	if resp := f.do(t, "POST", "/api/path?start=A&end=Q", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing path, got %d", resp.StatusCode)
	}
	if resp := f.do(t, "POST", "/api/path?start=A", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without end, got %d", resp.StatusCode)
	}
	if resp := f.do(t, "DELETE", "/api/path", nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestRoutesAndRefresh(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	routes := decode[[]graph.Route](t, f.do(t, "GET", "/api/routes", nil))
	if len(routes) != 2 || routes[0].Key != "A-B" || !routes[1].Blocked {
		t.Errorf("unexpected routes %+v", routes)
	}

	f.client.SetErr(context.DeadlineExceeded)
	if resp := f.do(t, "POST", "/api/refresh", nil); resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("expected 504 for a timed out refresh, got %d", resp.StatusCode)
	}
}

func TestCapabilityEndpoint(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	if resp := f.do(t, "PUT", "/api/capability", map[string]string{"role": "admin"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	res := decode[PointerResult](t, f.do(t, "POST", "/api/pointer/down", map[string]float64{"x": 52, "y": 100}))
	if res.Dragging != "A" {
		t.Errorf("admin should drag after upgrade, got %+v", res)
	}

	if resp := f.do(t, "PUT", "/api/capability", map[string]string{"role": "root"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown role, got %d", resp.StatusCode)
	}
}

func TestSubscribeStatus(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	if resp := f.do(t, "GET", "/api/subscribe/nope", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown topic, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", f.server.URL+"/api/subscribe/status", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev pubsub.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event: %v", err)
		}
		if ev.Topic != pubsub.TopicStatus {
			t.Errorf("expected status topic, got %s", ev.Topic)
		}
		return
	}
	t.Error("no replayed status event")
}

func TestStaticIndex(t *testing.T) {
	f := newFixture(t, model.CapabilityGuest)

	resp := f.do(t, "GET", "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("responses should carry a request id")
	}
}
