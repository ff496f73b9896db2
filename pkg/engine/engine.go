// Package engine owns the map state and serializes every change through a
// single inbox goroutine.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/logging"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
)

var log = logging.New("engine")

// ErrStopped is returned when the engine loop is not running.
var ErrStopped = errors.New("engine stopped")

// DefaultCommitTimeout bounds a single position commit.
const DefaultCommitTimeout = 10 * time.Second

type envelope struct {
	msg   Message
	query func(*State)
	reply chan Outcome
}

// Engine runs State on one goroutine. Senders never touch State directly.
type Engine struct {
	state     *State
	inbox     chan envelope
	done      chan struct{}
	publisher pubsub.Publisher
	sink      drag.PositionSink

	CommitTimeout time.Duration
}

// New creates an engine. publisher and sink may be nil.
func New(state *State, publisher pubsub.Publisher, sink drag.PositionSink) *Engine {
	return &Engine{
		state:         state,
		inbox:         make(chan envelope, 64),
		done:          make(chan struct{}),
		publisher:     publisher,
		sink:          sink,
		CommitTimeout: DefaultCommitTimeout,
	}
}

// Run processes the inbox until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	log.Info("engine started")

	for {
		select {
		case <-ctx.Done():
			log.Info("engine stopped")
			return ctx.Err()
		case env := <-e.inbox:
			if env.query != nil {
				env.query(e.state)
				if env.reply != nil {
					env.reply <- Outcome{}
				}
				continue
			}
			out := e.handle(ctx, env.msg)
			if env.reply != nil {
				env.reply <- out
			}
		}
	}
}

func (e *Engine) handle(ctx context.Context, msg Message) Outcome {
	start := time.Now()
	out := e.state.Apply(msg)

	log.Trace("message applied", "message", msg.Name(), "durationMs", time.Since(start).Milliseconds())
	if out.Err != nil {
		log.Debug("message rejected", "message", msg.Name(), "error", out.Err)
	}

	if e.publisher != nil {
		if out.Scene != nil {
			if err := e.publisher.Publish(pubsub.TopicScene, "rendered", out.Scene); err != nil {
				log.Warn("failed to publish scene", "error", err)
			}
		}
		if out.Status != nil {
			if err := e.publisher.Publish(pubsub.TopicStatus, out.Status.State, out.Status); err != nil {
				log.Warn("failed to publish status", "error", err)
			}
		}
	}

	if out.Commit != nil {
		e.commit(ctx, *out.Commit)
	}
	return out
}

// commit hands the position to the sink off the loop; the result comes back
// as a CommitResult message.
func (e *Engine) commit(ctx context.Context, c model.PositionCommit) {
	if e.sink == nil {
		log.Debug("no position sink configured, dropping commit", "node", c.Name)
		return
	}
	go func() {
		cctx, cancel := context.WithTimeout(ctx, e.CommitTimeout)
		defer cancel()

		err := e.sink.CommitPosition(cctx, c)
		if err != nil {
			log.Warn("position commit failed", "node", c.Name, "error", err)
		} else {
			log.Info("position committed", "node", c.Name, "x", c.X, "y", c.Y)
		}
		e.Post(CommitResult{Commit: c, Err: err})
	}()
}

// Send delivers msg and waits until it has been applied.
func (e *Engine) Send(ctx context.Context, msg Message) (Outcome, error) {
	reply := make(chan Outcome, 1)
	if err := e.enqueue(ctx, envelope{msg: msg, reply: reply}); err != nil {
		return Outcome{}, err
	}
	select {
	case out := <-reply:
		return out, nil
	case <-e.done:
		return Outcome{}, ErrStopped
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Post delivers msg without waiting for it to be applied. It returns false
// when the engine has stopped.
func (e *Engine) Post(msg Message) bool {
	return e.enqueue(context.Background(), envelope{msg: msg}) == nil
}

// Query runs fn on the engine goroutine, so fn may read State freely. fn must
// not retain State or anything it returns.
func (e *Engine) Query(ctx context.Context, fn func(*State)) error {
	reply := make(chan Outcome, 1)
	if err := e.enqueue(ctx, envelope{query: fn, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) enqueue(ctx context.Context, env envelope) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}
	select {
	case e.inbox <- env:
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
