// Package snapshot decodes network and tracking snapshots and reads them
// from files.
package snapshot

import (
	"context"

	"github.com/ritzau/hubmap/pkg/model"
)

// Source supplies network snapshots.
// Implementations encapsulate where the data lives (a file, a backend) and
// return a fully validated snapshot.
type Source interface {
	// Name identifies the source in logs and status messages.
	Name() string

	// Network fetches the current network. It should respect ctx for cancellation.
	Network(ctx context.Context) (model.NetworkSnapshot, error)
}
