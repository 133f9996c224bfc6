// Package services contains business logic.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tinylink/tinylink/internal/metrics"
	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/repository"
	"github.com/tinylink/tinylink/internal/validation"
	"github.com/tinylink/tinylink/pkg/logger"
)

// MaxListLimit caps how many mappings ListRecent returns.
const MaxListLimit = 100

// maxInsertRetries bounds how often a generated code may lose the insert race
// to a concurrent writer before Shorten gives up.
const maxInsertRetries = 3

// CodeGenerator produces a short code that was free when checked.
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// ShortenRequest represents the input for creating a short URL.
type ShortenRequest struct {
	LongURL    string
	CustomCode string
}

// URLService defines the interface for registration operations.
type URLService interface {
	Shorten(ctx context.Context, req ShortenRequest) (*models.URL, error)
	Get(ctx context.Context, shortCode string) (*models.URL, error)
	ListRecent(ctx context.Context, limit int) ([]*models.URL, error)
}

// URLServiceImpl implements URLService.
type URLServiceImpl struct {
	repo      repository.URLRepository
	codes     CodeGenerator
	validator *validation.Validator
	logger    *logger.Logger
	now       func() time.Time
}

var _ URLService = (*URLServiceImpl)(nil)

// NewURLService creates a new URLService instance. A nil validator uses
// validation.DefaultConfig.
func NewURLService(repo repository.URLRepository, codes CodeGenerator, v *validation.Validator, log *logger.Logger) *URLServiceImpl {
	if v == nil {
		v = validation.New(validation.DefaultConfig())
	}
	if log == nil {
		log = logger.Nop()
	}
	return &URLServiceImpl{
		repo:      repo,
		codes:     codes,
		validator: v,
		logger:    log,
		now:       time.Now,
	}
}

// Shorten validates the request and stores a new mapping.
// Checks run in order: missing url, invalid url, custom code format, custom code taken.
func (s *URLServiceImpl) Shorten(ctx context.Context, req ShortenRequest) (*models.URL, error) {
	longURL := strings.TrimSpace(req.LongURL)
	customCode := strings.TrimSpace(req.CustomCode)

	if err := s.validator.LongURL(longURL); err != nil {
		metrics.RecordShortenRejected("validation")
		return nil, err
	}

	if customCode != "" {
		return s.shortenCustom(ctx, longURL, customCode)
	}
	return s.shortenGenerated(ctx, longURL)
}

func (s *URLServiceImpl) shortenCustom(ctx context.Context, longURL, code string) (*models.URL, error) {
	if err := s.validator.CustomCode(code); err != nil {
		metrics.RecordShortenRejected("validation")
		return nil, err
	}

	if validation.IsReservedCode(code) {
		metrics.RecordShortenRejected("conflict")
		return nil, models.NewConflictError(code)
	}

	exists, err := s.repo.Exists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check custom code: %w", err)
	}
	if exists {
		metrics.RecordShortenRejected("conflict")
		return nil, models.NewConflictError(code)
	}

	// The UNIQUE constraint still decides if another writer got here first.
	url, err := s.repo.Create(ctx, &models.URLCreate{
		LongURL:   longURL,
		ShortCode: code,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if models.IsConflict(err) {
			metrics.RecordShortenRejected("conflict")
		}
		return nil, err
	}

	metrics.RecordURLCreated(true)
	s.logger.Info("url created", "short_code", url.ShortCode, "custom", true)
	return url, nil
}

func (s *URLServiceImpl) shortenGenerated(ctx context.Context, longURL string) (*models.URL, error) {
	for lost := 0; lost <= maxInsertRetries; lost++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			if errors.Is(err, models.ErrCodeSpaceExhausted) {
				metrics.RecordShortenRejected("exhausted")
			}
			return nil, err
		}

		url, err := s.repo.Create(ctx, &models.URLCreate{
			LongURL:   longURL,
			ShortCode: code,
			CreatedAt: s.now().UTC(),
		})
		if err == nil {
			metrics.RecordURLCreated(false)
			s.logger.Info("url created", "short_code", url.ShortCode, "custom", false)
			return url, nil
		}
		if !models.IsConflict(err) {
			return nil, err
		}
		s.logger.Debug("generated code lost insert race", "short_code", code, "retry", lost+1)
	}

	metrics.RecordShortenRejected("exhausted")
	return nil, fmt.Errorf("%w (lost %d insert races)", models.ErrCodeSpaceExhausted, maxInsertRetries+1)
}

// Get retrieves a mapping by its short code without counting a click.
func (s *URLServiceImpl) Get(ctx context.Context, shortCode string) (*models.URL, error) {
	shortCode = strings.TrimSpace(shortCode)
	if shortCode == "" {
		return nil, models.NewNotFoundError(shortCode)
	}
	return s.repo.GetByShortCode(ctx, shortCode)
}

// ListRecent returns the newest mappings. limit is clamped to 1..MaxListLimit.
func (s *URLServiceImpl) ListRecent(ctx context.Context, limit int) ([]*models.URL, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
