package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
	"github.com/ritzau/hubmap/pkg/snapshot"
)

// ErrNoBackend is returned for lookups when no backend is configured.
var ErrNoBackend = errors.New("no backend configured")

// Lookup resolves tracking and path requests. backend.Client satisfies it.
type Lookup interface {
	Tracking(ctx context.Context, id int) (model.TrackingSnapshot, error)
	Path(ctx context.Context, start, end string) (model.PathSnapshot, error)
}

// Loader fetches data off the engine loop and delivers it as messages.
// Fetches suspend; the engine never does.
type Loader struct {
	source    snapshot.Source
	lookup    Lookup
	engine    *Engine
	publisher pubsub.Publisher
	mu        sync.Mutex // one refresh at a time
}

// NewLoader creates a loader. lookup and publisher may be nil.
func NewLoader(source snapshot.Source, lookup Lookup, engine *Engine, publisher pubsub.Publisher) *Loader {
	return &Loader{
		source:    source,
		lookup:    lookup,
		engine:    engine,
		publisher: publisher,
	}
}

func (l *Loader) status(state, message string, step, total int) {
	if l.publisher == nil {
		return
	}
	st := pubsub.Status{State: state, Message: message, Step: step, Total: total}
	if err := l.publisher.Publish(pubsub.TopicStatus, state, st); err != nil {
		log.Warn("failed to publish status", "error", err)
	}
}

// Refresh fetches the network snapshot and replaces the engine's graph.
func (l *Loader) Refresh(ctx context.Context, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	log.Info("refreshing network", "source", l.source.Name(), "reason", reason)
	l.status("loading", fmt.Sprintf("Fetching network from %s...", l.source.Name()), 1, 2)

	snap, err := l.source.Network(ctx)
	if err != nil {
		log.Warn("network fetch failed", "source", l.source.Name(), "error", err)
		l.status("error", fmt.Sprintf("Error fetching network: %v", err), 1, 2)
		return fmt.Errorf("refresh failed: %w", err)
	}

	l.status("loading", fmt.Sprintf("Applying %d hubs...", len(snap.Nodes)), 2, 2)
	if _, err := l.engine.Send(ctx, SnapshotArrived{Snapshot: snap}); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}

// Track looks up a package and starts a tracking session for it. A package
// that is not found comes back as Outcome.Err wrapping
// timeline.ErrPackageNotFound, leaving the current session in place.
func (l *Loader) Track(ctx context.Context, id int) (Outcome, error) {
	if l.lookup == nil {
		return Outcome{}, ErrNoBackend
	}
	snap, err := l.lookup.Tracking(ctx, id)
	if err != nil {
		l.status("error", fmt.Sprintf("Error tracking package %d: %v", id, err), 0, 0)
		return Outcome{}, err
	}
	return l.engine.Send(ctx, TrackingArrived{Snapshot: snap})
}

// FindPath asks for the shortest path between two hubs and shows it.
func (l *Loader) FindPath(ctx context.Context, start, end string) (Outcome, error) {
	if l.lookup == nil {
		return Outcome{}, ErrNoBackend
	}
	snap, err := l.lookup.Path(ctx, start, end)
	if err != nil {
		l.status("error", fmt.Sprintf("Error finding path %s-%s: %v", start, end, err), 0, 0)
		return Outcome{}, err
	}
	return l.engine.Send(ctx, PathArrived{Snapshot: snap})
}
