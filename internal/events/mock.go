package events

import (
	"context"
	"sync"
)

// MockPublisher records published messages in memory
type MockPublisher struct {
	mu        sync.Mutex
	published []PublishedMessage
	err       error
	closed    bool
}

// PublishedMessage is one message seen by a MockPublisher
type PublishedMessage struct {
	Data       interface{}
	Attributes map[string]string
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the published message and returns a mock message ID
func (m *MockPublisher) Publish(ctx context.Context, data interface{}, attributes map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	m.published = append(m.published, PublishedMessage{
		Data:       data,
		Attributes: attributes,
	})
	return "mock-message-id", nil
}

// Close implements the Publisher interface
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Published returns a copy of every published message
func (m *MockPublisher) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.published...)
}

// Closed reports whether Close was called
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SetError sets an error to be returned by subsequent Publish calls
func (m *MockPublisher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
