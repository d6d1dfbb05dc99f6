package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"simreg/internal/domain"
)

// MockCapturer is a mock implementation of port.Capturer.
type MockCapturer struct {
	mock.Mock
}

func (m *MockCapturer) Capture(ctx context.Context, req domain.CaptureRequest) (*domain.Capture, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Capture), args.Error(1)
}

// MockPreviewStore is a mock implementation of port.PreviewStore.
type MockPreviewStore struct {
	mock.Mock
}

func (m *MockPreviewStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockPreviewStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockProcessingWaiter is a mock implementation of port.ProcessingWaiter.
type MockProcessingWaiter struct {
	mock.Mock
}

func (m *MockProcessingWaiter) Wait(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}
