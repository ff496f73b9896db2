package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
	"github.com/ritzau/hubmap/pkg/render"
	"github.com/ritzau/hubmap/pkg/timeline"
	"github.com/ritzau/hubmap/pkg/transform"
)

// ErrPathNotFound is reported when the backend has no route between two hubs.
var ErrPathNotFound = errors.New("path not found")

// Options configures a new State
type Options struct {
	Viewport   transform.Viewport
	Padding    float64
	PickRadius float64
	Capability model.Capability
}

// Outcome is what applying one message produced.
type Outcome struct {
	Scene  *pubsub.SceneUpdate   // set when the scene was redrawn
	Status *pubsub.Status        // set when there is progress to report
	Commit *model.PositionCommit // set when a drag ended and needs committing
	Err    error                 // not-found and similar caller-visible failures
}

// State is the engine's whole mutable world. It is only touched from the
// engine loop, or directly in tests.
type State struct {
	store      *graph.Store
	view       *transform.Engine
	drag       *drag.Controller
	session    *timeline.Session
	path       *model.PathSnapshot
	capability model.Capability
	canvas     *render.Recorder
	positions  map[model.NodeID]render.Position
	hash       string
}

// NewState creates an empty state and renders the blank scene
func NewState(opts Options) *State {
	if opts.Padding < 0 {
		opts.Padding = transform.DefaultPadding
	}
	s := &State{
		store:      graph.NewStore(),
		view:       transform.NewEngine(opts.Viewport, opts.Padding),
		capability: opts.Capability,
		canvas:     render.NewRecorder(opts.Viewport.Width, opts.Viewport.Height),
	}
	s.drag = drag.NewController(opts.PickRadius, func() bool { return s.capability.Elevated() })
	s.redraw("init")
	return s
}

// Apply handles one message and redraws when anything visible changed.
func (s *State) Apply(msg Message) Outcome {
	var out Outcome
	changed := false

	switch m := msg.(type) {
	case SnapshotArrived:
		s.store.Replace(m.Snapshot)
		s.drag.Rebind(s.store.Node)
		s.fit()
		changed = true
		if dangling := len(s.store.Dangling()); dangling > 0 {
			log.Debug("snapshot has dangling edges", "count", dangling)
		}
		out.Status = &pubsub.Status{
			State:   "ready",
			Message: fmt.Sprintf("Loaded %d hubs and %d routes", s.store.Len(), len(s.store.Routes())),
		}

	case TrackingArrived:
		session, err := timeline.Start(m.Snapshot)
		if err != nil {
			// Any previous session stays as it was.
			out.Err = err
			state := "error"
			if errors.Is(err, timeline.ErrPackageNotFound) {
				state = "not_found"
			}
			out.Status = &pubsub.Status{State: state, Message: err.Error()}
			break
		}
		s.session = session
		s.path = nil
		changed = true
		out.Status = &pubsub.Status{
			State:   "tracking",
			Message: fmt.Sprintf("Tracking package %d (%s)", session.PackageID, session.Status),
		}

	case PathArrived:
		if !m.Snapshot.Found {
			out.Err = ErrPathNotFound
			out.Status = &pubsub.Status{State: "not_found", Message: "No path found"}
			if s.path != nil {
				s.path = nil
				changed = true
			}
			break
		}
		p := m.Snapshot
		p.Path = append([]string(nil), m.Snapshot.Path...)
		s.path = &p
		changed = true

	case ClearPath:
		changed = s.path != nil
		s.path = nil

	case Resize:
		s.view.Resize(m.Viewport)
		s.canvas.Resize(m.Viewport.Width, m.Viewport.Height)
		s.fit()
		changed = true

	case Pointer:
		res := s.drag.Handle(s.clampPointer(m.Event), s.store.Nodes(), s.view.Current())
		if res.Commit != nil {
			out.Commit = res.Commit
			s.fit()
		}
		changed = res.Changed

	case NavigateBack:
		if s.session != nil {
			changed = s.session.Navigator().Back()
		}

	case NavigateForward:
		if s.session != nil {
			changed = s.session.Navigator().Forward()
		}

	case CloseTracking:
		changed = s.session != nil
		s.session = nil

	case SetCapability:
		s.capability = m.Capability
		if !s.capability.Elevated() && s.drag.Dragging() != nil {
			s.drag.Cancel()
			s.fit()
			changed = true
		}

	case CommitResult:
		if m.Err != nil {
			out.Status = &pubsub.Status{
				State:   "commit_failed",
				Message: fmt.Sprintf("Could not save %s: %v", m.Commit.Name, m.Err),
			}
		} else {
			out.Status = &pubsub.Status{State: "saved", Message: fmt.Sprintf("Saved %s", m.Commit.Name)}
		}

	default:
		out.Err = fmt.Errorf("unknown message %T", msg)
	}

	if changed {
		out.Scene = s.redraw(msg.Name())
	}
	return out
}

// clampPointer pins a pointer position to the viewport. NaN passes through
// and is rejected by the drag controller.
func (s *State) clampPointer(ev drag.Event) drag.Event {
	vp := s.view.Viewport()
	ev.X = math.Min(math.Max(ev.X, 0), vp.Width)
	ev.Y = math.Min(math.Max(ev.Y, 0), vp.Height)
	return ev
}

func (s *State) fit() {
	s.view.Fit(s.store.Nodes(), s.drag.Dragging())
}

func (s *State) overlay() render.Overlay {
	ov := render.Overlay{Path: s.path}
	if s.session != nil {
		ov.Tracking = &render.TrackingView{
			History: s.session.HistoryCities(),
			Future:  s.session.Planned,
			Current: s.session.Current,
		}
	}
	return ov
}

func (s *State) redraw(reason string) *pubsub.SceneUpdate {
	render.Render(s.canvas, s.store, s.overlay())

	positions := render.Positions(s.store.Nodes())
	moved := render.Moved(s.positions, positions)
	s.positions = positions
	s.hash = s.canvas.Hash()

	ids := make([]int64, len(moved))
	for i, id := range moved {
		ids[i] = int64(id)
	}
	return &pubsub.SceneUpdate{
		Hash:     s.hash,
		Reason:   reason,
		Nodes:    s.store.Len(),
		Moved:    ids,
		Tracking: s.session != nil,
	}
}

// Store returns the graph store
func (s *State) Store() *graph.Store {
	return s.store
}

// Transform returns the active transform
func (s *State) Transform() transform.Transform {
	return s.view.Current()
}

// Viewport returns the current viewport
func (s *State) Viewport() transform.Viewport {
	return s.view.Viewport()
}

// Dragging returns the node under drag, or nil
func (s *State) Dragging() *model.Node {
	return s.drag.Dragging()
}

// Capability returns the caller role
func (s *State) Capability() model.Capability {
	return s.capability
}

// Session returns the live tracking session, or nil
func (s *State) Session() *timeline.Session {
	return s.session
}

// Path returns the path overlay, or nil
func (s *State) Path() *model.PathSnapshot {
	return s.path
}

// Hash identifies the last rendered scene
func (s *State) Hash() string {
	return s.hash
}

// Scene returns a copy of the last rendered display list
func (s *State) Scene() []render.Op {
	return s.canvas.Ops()
}

// Replay draws the last rendered scene onto c
func (s *State) Replay(c render.Canvas) error {
	return s.canvas.Replay(c)
}
