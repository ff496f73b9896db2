package model

import "strings"

// Status is the package lifecycle ordinal reported by the backend.
type Status int

const (
	StatusCreated Status = iota
	StatusLoaded
	StatusInTransit
	StatusArrived
	StatusDelivered
	StatusFailed
)

// UnknownStatus is rendered for ordinals outside the known range.
const UnknownStatus = "?"

var statusNames = [...]string{"Created", "Loaded", "In Transit", "Arrived", "Delivered", "Failed"}

// Known reports whether s maps to a named status.
func (s Status) Known() bool {
	return s >= 0 && int(s) < len(statusNames)
}

func (s Status) String() string {
	if !s.Known() {
		return UnknownStatus
	}
	return statusNames[s]
}

// Stop is one visited hub in a package history.
type Stop struct {
	City string `json:"city" yaml:"city" validate:"required"`
	Time string `json:"time" yaml:"time"`
}

// Clock returns the time-of-day part of a "date time" stamp, or "" when the
// stamp carries no time component.
func (s Stop) Clock() string {
	_, clock, ok := strings.Cut(s.Time, " ")
	if !ok {
		return ""
	}
	return clock
}

// TrackingSnapshot is the backend answer to a tracking lookup.
type TrackingSnapshot struct {
	Found    bool     `json:"found" yaml:"found"`
	ID       int      `json:"id" yaml:"id"`
	Status   Status   `json:"status" yaml:"status"`
	Sender   string   `json:"sender" yaml:"sender"`
	Receiver string   `json:"receiver" yaml:"receiver"`
	Address  string   `json:"address" yaml:"address"`
	Current  string   `json:"current" yaml:"current"`
	History  []Stop   `json:"history" yaml:"history" validate:"dive"`
	Future   []string `json:"future" yaml:"future"`
}

// Capability is the caller's role. Only Admin is elevated.
type Capability string

const (
	CapabilityGuest   Capability = "guest"
	CapabilityManager Capability = "manager"
	CapabilityRider   Capability = "rider"
	CapabilityAdmin   Capability = "admin"
)

// Elevated reports whether the role may drag nodes and see admin overlays.
func (c Capability) Elevated() bool {
	return c == CapabilityAdmin
}

// ParseCapability maps a role name to a Capability
func ParseCapability(name string) (Capability, bool) {
	switch c := Capability(strings.ToLower(strings.TrimSpace(name))); c {
	case CapabilityGuest, CapabilityManager, CapabilityRider, CapabilityAdmin:
		return c, true
	}
	return "", false
}
