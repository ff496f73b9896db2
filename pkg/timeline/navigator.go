// Package timeline steps a viewer backward and forward through a package's
// recorded stops.
package timeline

import "github.com/ritzau/hubmap/pkg/model"

// stack only grows and shrinks at its top
type stack struct {
	items []model.Stop
}

func (s *stack) push(stop model.Stop) {
	s.items = append(s.items, stop)
}

func (s *stack) pop() model.Stop {
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top
}

func (s *stack) peek() (model.Stop, bool) {
	if len(s.items) == 0 {
		return model.Stop{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s *stack) len() int {
	return len(s.items)
}

func (s *stack) copy() []model.Stop {
	out := make([]model.Stop, len(s.items))
	copy(out, s.items)
	return out
}

// Navigator holds the history and future stacks. Entries only move between
// the two; the origin stop never leaves history.
type Navigator struct {
	history stack
	future  stack
}

// NewNavigator starts with a copy of history and an empty future.
func NewNavigator(history []model.Stop) *Navigator {
	n := &Navigator{}
	n.history.items = make([]model.Stop, len(history))
	copy(n.history.items, history)
	return n
}

// Back moves the newest history stop onto the future stack. It is a no-op
// that returns false when only the origin remains.
func (n *Navigator) Back() bool {
	if n.history.len() <= 1 {
		return false
	}
	n.future.push(n.history.pop())
	return true
}

// Forward moves the newest future stop back onto history. It is a no-op
// that returns false when the future stack is empty.
func (n *Navigator) Forward() bool {
	if n.future.len() == 0 {
		return false
	}
	n.history.push(n.future.pop())
	return true
}

// CurrentCity returns the city at the top of history
func (n *Navigator) CurrentCity() string {
	top, _ := n.history.peek()
	return top.City
}

// History returns a copy of the history stack, oldest first
func (n *Navigator) History() []model.Stop {
	return n.history.copy()
}

// Future returns a copy of the future stack, bottom first
func (n *Navigator) Future() []model.Stop {
	return n.future.copy()
}

// CanBack reports whether Back would move a stop
func (n *Navigator) CanBack() bool {
	return n.history.len() > 1
}

// CanForward reports whether Forward would move a stop
func (n *Navigator) CanForward() bool {
	return n.future.len() > 0
}

// Len is the total number of stops held across both stacks
func (n *Navigator) Len() int {
	return n.history.len() + n.future.len()
}
