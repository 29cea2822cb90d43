package testutil

import (
	"context"
	"fmt"
	"sync"

	"route-planner-service/internal/domain"
)

// MockPolylineProvider records every call and returns "polyline:<n>" where
// n is the number of waypoints, or Err when set.
type MockPolylineProvider struct {
	mu    sync.Mutex
	Err   error
	Calls [][]domain.Coordinates
}

func NewMockPolylineProvider() *MockPolylineProvider {
	return &MockPolylineProvider{}
}

func (m *MockPolylineProvider) Compute(_ context.Context, waypoints []domain.Coordinates) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, append([]domain.Coordinates(nil), waypoints...))
	if m.Err != nil {
		return "", m.Err
	}
	return fmt.Sprintf("polyline:%d", len(waypoints)), nil
}

// LastCall returns the waypoints of the most recent call.
func (m *MockPolylineProvider) LastCall() []domain.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1]
}

// SetErr switches the failure mode for subsequent calls.
func (m *MockPolylineProvider) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
