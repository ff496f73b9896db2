package timeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ritzau/hubmap/pkg/model"
)

var (
	// ErrPackageNotFound is returned when the tracking lookup did not find the package.
	ErrPackageNotFound = errors.New("package not found")
	// ErrEmptyHistory is returned when a found package has neither history nor a current city.
	ErrEmptyHistory = errors.New("tracking snapshot has no stops")
)

// Session is one package being tracked. Planned is the immutable route
// remainder; navigation never touches it.
type Session struct {
	ID        uuid.UUID
	PackageID int
	Status    model.Status
	Sender    string
	Receiver  string
	Address   string
	Current   string
	Planned   []string

	nav *Navigator
}

// Start builds a session from a tracking snapshot. A snapshot with an empty
// history is seeded with its current city as the origin stop.
func Start(snap model.TrackingSnapshot) (*Session, error) {
	if !snap.Found {
		return nil, fmt.Errorf("package %d: %w", snap.ID, ErrPackageNotFound)
	}

	history := snap.History
	if len(history) == 0 {
		if snap.Current == "" {
			return nil, fmt.Errorf("package %d: %w", snap.ID, ErrEmptyHistory)
		}
		history = []model.Stop{{City: snap.Current}}
	}

	planned := make([]string, len(snap.Future))
	copy(planned, snap.Future)

	return &Session{
		ID:        uuid.New(),
		PackageID: snap.ID,
		Status:    snap.Status,
		Sender:    snap.Sender,
		Receiver:  snap.Receiver,
		Address:   snap.Address,
		Current:   snap.Current,
		Planned:   planned,
		nav:       NewNavigator(history),
	}, nil
}

// Navigator returns the session's history navigator
func (s *Session) Navigator() *Navigator {
	return s.nav
}

// HistoryCities returns the city names on the history stack, oldest first.
func (s *Session) HistoryCities() []string {
	stops := s.nav.History()
	cities := make([]string, len(stops))
	for i, stop := range stops {
		cities[i] = stop.City
	}
	return cities
}
