package services

import (
	"context"
	"sync"
)

// MockEventPublisher records published events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []OrderEvent

	// PublishError, when set, is returned from PublishOrderEvent
	PublishError error
}

// NewMockEventPublisher creates an empty mock publisher.
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// PublishOrderEvent records the event.
func (m *MockEventPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Close is a no-op.
func (m *MockEventPublisher) Close() error {
	return nil
}

// Events returns a copy of the recorded events.
func (m *MockEventPublisher) Events() []OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]OrderEvent, len(m.events))
	copy(copied, m.events)
	return copied
}
