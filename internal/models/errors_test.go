package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError(MsgInvalidURL)

	assert.Equal(t, "invalid url", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsConflict(err))
	assert.False(t, IsNotFound(err))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MsgInvalidURL, ve.Message)
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("my-link")

	assert.Equal(t, "code taken", err.Error())
	assert.True(t, IsConflict(err))
	assert.False(t, IsValidation(err))

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "my-link", ce.Code)
	assert.Equal(t, MsgCodeTaken, ce.Message)
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("nope")

	assert.Equal(t, "short code not found: nope", err.Error())
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrors_SurviveWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		match error
	}{
		{"validation", NewValidationError(MsgMissingURL), ErrValidation},
		{"conflict", NewConflictError("abc"), ErrConflict},
		{"not found", NewNotFoundError("abc"), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("register: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.match)
		})
	}
}
