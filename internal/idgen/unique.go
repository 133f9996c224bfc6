package idgen

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tinylink/tinylink/internal/metrics"
	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/validation"
)

// DefaultMaxAttempts bounds how many candidates UniqueGenerator tries.
// With 62^6 codes this is only reached when the store is nearly full
// or the existence check is broken.
const DefaultMaxAttempts = 10

// ExistenceChecker defines the interface for checking if a code exists.
type ExistenceChecker interface {
	// Exists returns true if the given code already exists in storage.
	Exists(ctx context.Context, code string) (bool, error)
}

// Stats holds counters about code generation.
type Stats struct {
	TotalGenerations int64
	TotalAttempts    int64
	TotalCollisions  int64
	TotalExhausted   int64
}

// UniqueGenerator draws candidates from a base Generator until one is
// absent from the store.
type UniqueGenerator struct {
	base        Generator
	checker     ExistenceChecker
	maxAttempts int

	totalGenerations atomic.Int64
	totalAttempts    atomic.Int64
	totalCollisions  atomic.Int64
	totalExhausted   atomic.Int64
}

// NewUniqueGenerator creates a new UniqueGenerator. maxAttempts < 1 falls
// back to DefaultMaxAttempts.
func NewUniqueGenerator(base Generator, checker ExistenceChecker, maxAttempts int) *UniqueGenerator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &UniqueGenerator{
		base:        base,
		checker:     checker,
		maxAttempts: maxAttempts,
	}
}

// Generate returns the first candidate that is neither reserved for a fixed
// route nor present in the store. Reserved candidates count as collisions.
// It fails with models.ErrCodeSpaceExhausted after maxAttempts collisions
// and with ctx.Err() if the context is done between attempts.
func (g *UniqueGenerator) Generate(ctx context.Context) (string, error) {
	g.totalGenerations.Add(1)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		g.totalAttempts.Add(1)
		code, err := g.base.Generate()
		if err != nil {
			return "", fmt.Errorf("generate candidate: %w", err)
		}

		if !validation.IsReservedCode(code) {
			exists, err := g.checker.Exists(ctx, code)
			if err != nil {
				return "", fmt.Errorf("check candidate: %w", err)
			}
			if !exists {
				return code, nil
			}
		}
		g.totalCollisions.Add(1)
		metrics.RecordCodeCollision()
	}

	g.totalExhausted.Add(1)
	metrics.RecordCodeExhausted()
	return "", fmt.Errorf("%w (%d attempts)", models.ErrCodeSpaceExhausted, g.maxAttempts)
}

// MaxAttempts returns the configured attempt limit.
func (g *UniqueGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Stats returns a snapshot of the generation counters.
func (g *UniqueGenerator) Stats() Stats {
	return Stats{
		TotalGenerations: g.totalGenerations.Load(),
		TotalAttempts:    g.totalAttempts.Load(),
		TotalCollisions:  g.totalCollisions.Load(),
		TotalExhausted:   g.totalExhausted.Load(),
	}
}
