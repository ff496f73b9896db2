package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/ritzau/hubmap/pkg/backend"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
	"github.com/ritzau/hubmap/pkg/timeline"
)

func TestLoaderRefresh(t *testing.T) {
	client := backend.NewMockClient(lineNetwork())
	e, pub := startEngine(t, model.CapabilityGuest, nil)
	loader := NewLoader(client, client, e, pub)
	ctx := context.Background()

	sub, _ := pub.Subscribe(ctx, pubsub.TopicStatus)
	defer sub.Close()

	if err := loader.Refresh(ctx, "test"); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	waitFor(t, sub, "loading")
	waitFor(t, sub, "ready")

	var n int
	e.Query(ctx, func(s *State) { n = s.Store().Len() })
	if n != 3 {
		t.Errorf("expected 3 nodes after refresh, got %d", n)
	}
}

func TestLoaderRefreshError(t *testing.T) {
	client := backend.NewMockClient(lineNetwork())
	client.SetErr(errors.New("unreachable"))
	e, pub := startEngine(t, model.CapabilityGuest, nil)
	loader := NewLoader(client, client, e, pub)

	if err := loader.Refresh(context.Background(), "test"); err == nil {
		t.Error("expected refresh error")
	}
}

func TestLoaderTrack(t *testing.T) {
	client := backend.NewMockClient(lineNetwork())
	client.Packages[11] = tracked()
	e, pub := startEngine(t, model.CapabilityGuest, nil)
	loader := NewLoader(client, client, e, pub)
	ctx := context.Background()
	loader.Refresh(ctx, "test")

	out, err := loader.Track(ctx, 11)
	if err != nil || out.Err != nil {
		t.Fatalf("Track() = %+v, %v", out, err)
	}

	out, err = loader.Track(ctx, 12)
	if err != nil {
		t.Fatalf("Track() error: %v", err)
	}
	if !errors.Is(out.Err, timeline.ErrPackageNotFound) {
		t.Errorf("expected ErrPackageNotFound, got %v", out.Err)
	}

	var pkg int
	e.Query(ctx, func(s *State) { pkg = s.Session().PackageID })
	if pkg != 11 {
		t.Errorf("session should still track 11, got %d", pkg)
	}
}

func TestLoaderFindPath(t *testing.T) {
	client := backend.NewMockClient(lineNetwork())
	client.Paths["A-C"] = model.PathSnapshot{Found: true, Path: []string{"A", "B", "C"}, Distance: 200}
	e, pub := startEngine(t, model.CapabilityGuest, nil)
	loader := NewLoader(client, client, e, pub)
	ctx := context.Background()

	out, err := loader.FindPath(ctx, "A", "C")
	if err != nil || out.Scene == nil {
		t.Fatalf("FindPath() = %+v, %v", out, err)
	}
}

func TestLoaderWithoutBackend(t *testing.T) {
	client := backend.NewMockClient(lineNetwork())
	e, _ := startEngine(t, model.CapabilityGuest, nil)
	loader := NewLoader(client, nil, e, nil)

	if _, err := loader.Track(context.Background(), 1); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend, got %v", err)
	}
	if _, err := loader.FindPath(context.Background(), "A", "B"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend, got %v", err)
	}
}
