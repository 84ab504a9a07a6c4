package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	custom := ErrNotFound.WithMessage("player not found")
	wrapped := fmt.Errorf("get player: %w", custom)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrAlreadyExists)
	assert.Equal(t, "player not found", custom.Error())
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrInvalidInput.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid input: disk full", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
}
