package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the engine
const (
	TopicScene  = "scene"
	TopicStatus = "status"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // "scene" or "status"
	Type    string          `json:"type"`    // e.g. "rendered", "loading", "ready", "error"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// SceneUpdate announces a re-rendered scene
type SceneUpdate struct {
	Hash     string  `json:"hash"`
	Reason   string  `json:"reason"` // message that caused the redraw
	Nodes    int     `json:"nodes"`
	Moved    []int64 `json:"moved,omitempty"`
	Tracking bool    `json:"tracking"`
}

// Status reports data loading and commit progress
type Status struct {
	State   string `json:"state"`   // loading, ready, not_found, commit_failed, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}
