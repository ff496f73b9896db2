package timeline

// NoPlanMarker stands in for the planned route when nothing is left to travel.
const NoPlanMarker = "Arrived / No Plan"

// VisitedStop is a history entry as listed in the tracking panel
type VisitedStop struct {
	City  string `json:"city"`
	Clock string `json:"clock"`
}

// Panel is the tracking side panel contents.
type Panel struct {
	Session    string        `json:"session"`
	PackageID  int           `json:"packageId"`
	Status     string        `json:"status"`
	Sender     string        `json:"sender"`
	Receiver   string        `json:"receiver"`
	Address    string        `json:"address"`
	Location   string        `json:"location"`
	Viewing    string        `json:"viewing"`
	Visited    []VisitedStop `json:"visited"`
	Planned    []string      `json:"planned"`
	CanBack    bool          `json:"canBack"`
	CanForward bool          `json:"canForward"`
}

// Panel summarizes the session at the navigator's current position.
func (s *Session) Panel() Panel {
	stops := s.nav.History()
	visited := make([]VisitedStop, len(stops))
	for i, stop := range stops {
		visited[i] = VisitedStop{City: stop.City, Clock: stop.Clock()}
	}

	planned := s.Planned
	if len(planned) == 0 {
		planned = []string{NoPlanMarker}
	}

	return Panel{
		Session:    s.ID.String(),
		PackageID:  s.PackageID,
		Status:     s.Status.String(),
		Sender:     s.Sender,
		Receiver:   s.Receiver,
		Address:    s.Address,
		Location:   s.Current,
		Viewing:    s.nav.CurrentCity(),
		Visited:    visited,
		Planned:    planned,
		CanBack:    s.nav.CanBack(),
		CanForward: s.nav.CanForward(),
	}
}
