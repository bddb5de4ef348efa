package services

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"shopping-assistant/internal/models"
)

// MockPlatformClient is a testify mock for PlatformClientInterface
type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) Chat(ctx context.Context, req *models.AssistantRequest) (*models.AssistantResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssistantResponse), args.Error(1)
}

func (m *MockPlatformClient) ChatStream(ctx context.Context, req *models.AssistantRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockPlatformClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockPlatformClient) Autocomplete(ctx context.Context, query string) (*models.AutocompleteResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutocompleteResponse), args.Error(1)
}

func (m *MockPlatformClient) HealthCheck(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
