// Package idgen generates short codes and guarantees their uniqueness
// against a store.
package idgen

import (
	"crypto/rand"
	"math/big"
)

// DefaultCodeLength is the default length for generated short codes.
const DefaultCodeLength = 6

// Generator defines the interface for producing short code candidates.
type Generator interface {
	// Generate returns a new candidate. Candidates are not guaranteed unique.
	Generate() (string, error)
}

// RandomGenerator draws each character independently and uniformly
// from the 62-character alphabet.
type RandomGenerator struct {
	length int
}

// NewRandomGenerator creates a new RandomGenerator with the specified code length.
func NewRandomGenerator(length int) *RandomGenerator {
	if length < 1 {
		length = DefaultCodeLength
	}
	return &RandomGenerator{length: length}
}

// NewDefaultGenerator creates a RandomGenerator with the default code length.
func NewDefaultGenerator() *RandomGenerator {
	return NewRandomGenerator(DefaultCodeLength)
}

// Generate creates a new random short code using crypto/rand.
func (g *RandomGenerator) Generate() (string, error) {
	result := make([]byte, g.length)
	max := big.NewInt(int64(len(alphabet)))

	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = alphabet[n.Int64()]
	}

	return string(result), nil
}

// Length returns the configured code length.
func (g *RandomGenerator) Length() int {
	return g.length
}
