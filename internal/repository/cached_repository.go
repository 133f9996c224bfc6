package repository

import (
	"context"

	"github.com/tinylink/tinylink/internal/cache"
	"github.com/tinylink/tinylink/internal/metrics"
	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/pkg/logger"
)

// CachedURLRepository fronts a URLRepository with the taken-code cache.
// Only Exists consults the cache and only a positive answer is trusted.
// Clicks, lookups and listings always go to the store.
type CachedURLRepository struct {
	repo   URLRepository
	codes  cache.CodeCacher
	logger *logger.Logger
}

var _ URLRepository = (*CachedURLRepository)(nil)

// NewCachedURLRepository creates a new cached URL repository.
func NewCachedURLRepository(repo URLRepository, codes cache.CodeCacher, log *logger.Logger) *CachedURLRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedURLRepository{repo: repo, codes: codes, logger: log}
}

// Create stores the mapping and then records its code as taken (write-through).
func (c *CachedURLRepository) Create(ctx context.Context, create *models.URLCreate) (*models.URL, error) {
	url, err := c.repo.Create(ctx, create)
	if err != nil {
		if models.IsConflict(err) {
			c.markTaken(ctx, create.ShortCode)
		}
		return nil, err
	}

	c.markTaken(ctx, url.ShortCode)
	return url, nil
}

// GetByShortCode reads from the store.
func (c *CachedURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	return c.repo.GetByShortCode(ctx, shortCode)
}

// Exists answers from the cache when it knows the code is taken,
// otherwise asks the store and remembers a positive answer.
func (c *CachedURLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	taken, err := c.codes.IsTaken(ctx, shortCode)
	if err != nil {
		c.logger.Warn("code cache lookup failed", "short_code", shortCode, "error", err)
	}
	if err == nil && taken {
		metrics.RecordCacheHit()
		return true, nil
	}
	metrics.RecordCacheMiss()

	exists, err := c.repo.Exists(ctx, shortCode)
	if err != nil {
		return false, err
	}
	if exists {
		c.markTaken(ctx, shortCode)
	}
	return exists, nil
}

// IncrementClicks always goes to the store.
func (c *CachedURLRepository) IncrementClicks(ctx context.Context, shortCode string) (string, error) {
	return c.repo.IncrementClicks(ctx, shortCode)
}

// ListRecent always goes to the store.
func (c *CachedURLRepository) ListRecent(ctx context.Context, limit int) ([]*models.URL, error) {
	return c.repo.ListRecent(ctx, limit)
}

// HealthCheck checks the store. Cache health is reported separately by the
// readiness endpoint since the service works without it.
func (c *CachedURLRepository) HealthCheck(ctx context.Context) error {
	return c.repo.HealthCheck(ctx)
}

func (c *CachedURLRepository) markTaken(ctx context.Context, shortCode string) {
	if err := c.codes.MarkTaken(ctx, shortCode); err != nil {
		c.logger.Warn("code cache write failed", "short_code", shortCode, "error", err)
	}
}
