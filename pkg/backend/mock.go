package backend

import (
	"context"
	"sync"

	"github.com/ritzau/hubmap/pkg/model"
)

// MockClient is an in-memory Client for tests
type MockClient struct {
	mu sync.Mutex

	NetworkSnapshot model.NetworkSnapshot
	Packages        map[int]model.TrackingSnapshot
	Paths           map[string]model.PathSnapshot // key "start-end"
	Err             error                         // returned by every call when set

	Commits []model.PositionCommit
}

// NewMockClient creates a mock serving snap
func NewMockClient(snap model.NetworkSnapshot) *MockClient {
	return &MockClient{
		NetworkSnapshot: snap,
		Packages:        make(map[int]model.TrackingSnapshot),
		Paths:           make(map[string]model.PathSnapshot),
	}
}

func (m *MockClient) Name() string {
	return "mock"
}

func (m *MockClient) Network(ctx context.Context) (model.NetworkSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.NetworkSnapshot{}, m.Err
	}
	return m.NetworkSnapshot, nil
}

func (m *MockClient) Tracking(ctx context.Context, id int) (model.TrackingSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.TrackingSnapshot{}, m.Err
	}
	snap, ok := m.Packages[id]
	if !ok {
		return model.TrackingSnapshot{Found: false, ID: id}, nil
	}
	return snap, nil
}

func (m *MockClient) Path(ctx context.Context, start, end string) (model.PathSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.PathSnapshot{}, m.Err
	}
	return m.Paths[start+"-"+end], nil
}

func (m *MockClient) CommitPosition(ctx context.Context, commit model.PositionCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Commits = append(m.Commits, commit)
	return nil
}

// CommitCount returns the number of commits received
func (m *MockClient) CommitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Commits)
}

// SetErr makes every subsequent call fail with err
func (m *MockClient) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
