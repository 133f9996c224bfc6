// Package repository handles data persistence.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tinylink/tinylink/internal/database"
	"github.com/tinylink/tinylink/internal/metrics"
	"github.com/tinylink/tinylink/internal/models"
)

// URLRepository defines the interface for mapping persistence operations.
type URLRepository interface {
	// Create stores a new mapping. A taken short code yields *models.ConflictError.
	Create(ctx context.Context, create *models.URLCreate) (*models.URL, error)

	// GetByShortCode retrieves a mapping by its short code.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// Exists checks if a short code is already taken.
	Exists(ctx context.Context, shortCode string) (bool, error)

	// IncrementClicks adds one click and returns the destination in one statement.
	IncrementClicks(ctx context.Context, shortCode string) (string, error)

	// ListRecent returns up to limit mappings, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.URL, error)

	// HealthCheck verifies the repository is healthy.
	HealthCheck(ctx context.Context) error
}

const urlColumns = `id, long_url, short_code, clicks, created_at`

// SQLURLRepository implements URLRepository on database/sql.
type SQLURLRepository struct {
	db *database.DB
}

var _ URLRepository = (*SQLURLRepository)(nil)

// NewSQLURLRepository creates a repository on an open, migrated store.
func NewSQLURLRepository(db *database.DB) *SQLURLRepository {
	return &SQLURLRepository{db: db}
}

// Create stores a new mapping with zero clicks.
func (r *SQLURLRepository) Create(ctx context.Context, create *models.URLCreate) (*models.URL, error) {
	defer observe("create", time.Now())

	createdAt := create.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	query := r.db.Dialect.Rebind(`
		INSERT INTO urls (long_url, short_code, clicks, created_at)
		VALUES (?, ?, 0, ?)
		RETURNING id`)

	url := &models.URL{
		LongURL:   create.LongURL,
		ShortCode: create.ShortCode,
		CreatedAt: createdAt,
	}
	if err := r.db.QueryRowContext(ctx, query, create.LongURL, create.ShortCode, createdAt).Scan(&url.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, models.NewConflictError(create.ShortCode)
		}
		return nil, fmt.Errorf("failed to create URL: %w", err)
	}

	return url, nil
}

// GetByShortCode retrieves a mapping by its short code.
func (r *SQLURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	defer observe("get", time.Now())

	query := r.db.Dialect.Rebind(`SELECT ` + urlColumns + ` FROM urls WHERE short_code = ?`)

	url, err := scanURL(r.db.QueryRowContext(ctx, query, shortCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError(shortCode)
		}
		return nil, fmt.Errorf("failed to get URL: %w", err)
	}

	return url, nil
}

// Exists checks if a short code is already taken.
func (r *SQLURLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	defer observe("exists", time.Now())

	query := r.db.Dialect.Rebind(`SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = ?)`)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, shortCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// IncrementClicks adds one click and returns the destination URL.
// An unknown code yields *models.NotFoundError and changes nothing.
func (r *SQLURLRepository) IncrementClicks(ctx context.Context, shortCode string) (string, error) {
	defer observe("increment_clicks", time.Now())

	query := r.db.Dialect.Rebind(`
		UPDATE urls SET clicks = clicks + 1
		WHERE short_code = ?
		RETURNING long_url`)

	var longURL string
	if err := r.db.QueryRowContext(ctx, query, shortCode).Scan(&longURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.NewNotFoundError(shortCode)
		}
		return "", fmt.Errorf("failed to increment clicks: %w", err)
	}

	return longURL, nil
}

// ListRecent returns up to limit mappings ordered by id descending.
func (r *SQLURLRepository) ListRecent(ctx context.Context, limit int) ([]*models.URL, error) {
	defer observe("list_recent", time.Now())

	if limit <= 0 {
		return []*models.URL{}, nil
	}

	query := r.db.Dialect.Rebind(`SELECT ` + urlColumns + ` FROM urls ORDER BY id DESC LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	urls := make([]*models.URL, 0, limit)
	for rows.Next() {
		url, err := scanURL(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}

	return urls, nil
}

// HealthCheck verifies the store connection is healthy.
func (r *SQLURLRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanURL(row rowScanner) (*models.URL, error) {
	var url models.URL
	if err := row.Scan(&url.ID, &url.LongURL, &url.ShortCode, &url.Clicks, &url.CreatedAt); err != nil {
		return nil, err
	}
	url.CreatedAt = url.CreatedAt.UTC()
	return &url, nil
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}
