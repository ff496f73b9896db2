package engine

import (
	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/transform"
)

// Message is anything delivered to the engine inbox. Every message replaces
// the state it carries wholesale; the last one applied wins.
type Message interface {
	Name() string
}

// SnapshotArrived replaces the network
type SnapshotArrived struct {
	Snapshot model.NetworkSnapshot
}

// TrackingArrived starts a tracking session unless the package was not found
type TrackingArrived struct {
	Snapshot model.TrackingSnapshot
}

// PathArrived sets the shortest-path overlay
type PathArrived struct {
	Snapshot model.PathSnapshot
}

// ClearPath removes the path overlay
type ClearPath struct{}

// Resize reports a new drawing surface size
type Resize struct {
	Viewport transform.Viewport
}

// Pointer forwards a pointer event to the drag controller
type Pointer struct {
	Event drag.Event
}

// NavigateBack steps the timeline back one stop
type NavigateBack struct{}

// NavigateForward steps the timeline forward one stop
type NavigateForward struct{}

// CloseTracking ends the tracking session
type CloseTracking struct{}

// SetCapability changes the caller role
type SetCapability struct {
	Capability model.Capability
}

// CommitResult reports the outcome of a position commit
type CommitResult struct {
	Commit model.PositionCommit
	Err    error
}

func (SnapshotArrived) Name() string { return "snapshot" }
func (TrackingArrived) Name() string { return "tracking" }
func (PathArrived) Name() string     { return "path" }
func (ClearPath) Name() string       { return "clear_path" }
func (Resize) Name() string          { return "resize" }
func (p Pointer) Name() string       { return "pointer_" + p.Event.Kind.String() }
func (NavigateBack) Name() string    { return "back" }
func (NavigateForward) Name() string { return "forward" }
func (CloseTracking) Name() string   { return "close_tracking" }
func (SetCapability) Name() string   { return "capability" }
func (CommitResult) Name() string    { return "commit_result" }
