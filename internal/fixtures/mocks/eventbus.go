// Package mocks holds testify mocks of the interfaces services depend on.
package mocks

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/stretchr/testify/mock"
)

// MockBus is a mock of eventbus.Bus.
type MockBus struct {
	mock.Mock
}

func NewMockBus() *MockBus {
	return &MockBus{}
}

func (m *MockBus) Emit(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	m.Called(eventType, handler)
}

var _ eventbus.Bus = (*MockBus)(nil)
