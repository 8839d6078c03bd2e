// Package mocks contains shared testify mocks for the provider and event bus
// interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/symposiumhq/symposium/pkg/provider"
)

// MockProvider is a mock implementation of the provider.Client interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Complete(ctx context.Context, req provider.Request) (string, error) {
	args := m.Called(ctx, req)

	return args.String(0), args.Error(1)
}
