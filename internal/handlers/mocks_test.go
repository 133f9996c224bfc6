package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/services"
)

// MockURLService is a mock implementation of services.URLService.
type MockURLService struct {
	mock.Mock
}

func (m *MockURLService) Shorten(ctx context.Context, req services.ShortenRequest) (*models.URL, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.URL), args.Error(1)
}

func (m *MockURLService) Get(ctx context.Context, shortCode string) (*models.URL, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.URL), args.Error(1)
}

func (m *MockURLService) ListRecent(ctx context.Context, limit int) ([]*models.URL, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.URL), args.Error(1)
}

// MockRedirectService is a mock implementation of services.RedirectService.
type MockRedirectService struct {
	mock.Mock
}

func (m *MockRedirectService) Resolve(ctx context.Context, shortCode string) (*services.RedirectResult, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RedirectResult), args.Error(1)
}
