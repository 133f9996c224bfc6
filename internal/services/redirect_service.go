package services

import (
	"context"
	"strings"

	"github.com/tinylink/tinylink/internal/metrics"
	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/repository"
)

// RedirectResult represents the result of a redirect lookup.
type RedirectResult struct {
	LongURL string
}

// RedirectService defines the interface for URL redirect operations.
type RedirectService interface {
	Resolve(ctx context.Context, shortCode string) (*RedirectResult, error)
}

// RedirectServiceImpl implements RedirectService.
type RedirectServiceImpl struct {
	repo repository.URLRepository
}

var _ RedirectService = (*RedirectServiceImpl)(nil)

// NewRedirectService creates a new RedirectService instance.
func NewRedirectService(repo repository.URLRepository) *RedirectServiceImpl {
	return &RedirectServiceImpl{repo: repo}
}

// Resolve counts one click and returns the destination. The lookup and the
// increment are a single store statement, so a click is never lost or
// counted for a missing code.
func (s *RedirectServiceImpl) Resolve(ctx context.Context, shortCode string) (*RedirectResult, error) {
	shortCode = strings.TrimSpace(shortCode)
	if shortCode == "" {
		metrics.RecordRedirectMiss()
		return nil, models.NewNotFoundError(shortCode)
	}

	longURL, err := s.repo.IncrementClicks(ctx, shortCode)
	if err != nil {
		if models.IsNotFound(err) {
			metrics.RecordRedirectMiss()
		}
		return nil, err
	}

	metrics.RecordRedirect()
	return &RedirectResult{LongURL: longURL}, nil
}
