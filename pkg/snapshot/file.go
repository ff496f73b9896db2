package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ritzau/hubmap/pkg/logging"
	"github.com/ritzau/hubmap/pkg/model"
)

var log = logging.New("snapshot")

// FileSource reads the network from a JSON or YAML file. It doubles as a
// position sink by rewriting the node's coordinates in the file.
type FileSource struct {
	path   string
	format Format
	mu     sync.Mutex
}

// NewFileSource creates a source for path. The format follows the extension.
func NewFileSource(path string) (*FileSource, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format}, nil
}

// Path returns the snapshot file path
func (f *FileSource) Path() string {
	return f.path
}

func (f *FileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func (f *FileSource) Network(ctx context.Context) (model.NetworkSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.NetworkSnapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileSource) read() (model.NetworkSnapshot, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return model.NetworkSnapshot{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	snap, err := DecodeNetwork(file, f.format)
	if err != nil {
		return model.NetworkSnapshot{}, fmt.Errorf("%s: %w", f.path, err)
	}
	log.Debug("snapshot read", "path", f.path, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return snap, nil
}

// CommitPosition updates the named node in the file
func (f *FileSource) CommitPosition(ctx context.Context, commit model.PositionCommit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.read()
	if err != nil {
		return err
	}

	found := false
	for i := range snap.Nodes {
		if snap.Nodes[i].Name == commit.Name {
			snap.Nodes[i].X, snap.Nodes[i].Y = commit.X, commit.Y
			found = true
		}
	}
	if !found {
		return fmt.Errorf("node %q not in %s", commit.Name, f.path)
	}

	var buf bytes.Buffer
	if err := EncodeNetwork(&buf, f.format, snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Write then rename so watchers never see a half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".hubmap-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	log.Info("position saved", "node", commit.Name, "path", f.path)
	return nil
}

// LoadTracking reads a tracking snapshot file
func LoadTracking(path string) (model.TrackingSnapshot, error) {
	format, err := FormatOf(path)
	if err != nil {
		return model.TrackingSnapshot{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return model.TrackingSnapshot{}, fmt.Errorf("failed to open tracking file: %w", err)
	}
	defer file.Close()
	return DecodeTracking(file, format)
}
