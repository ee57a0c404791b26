package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeMessage(t *testing.T) {
	assert.Equal(t, "nope", SafeMessage(NewBadRequest("nope")))
	assert.Equal(t, "an unexpected error occurred", SafeMessage(errors.New("dial tcp: refused")))

	wrapped := fmt.Errorf("loading: %w", NewNotFound("missing"))
	assert.Equal(t, "missing", SafeMessage(wrapped))
}

func TestSafeCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, SafeCode(NewNotFound("x")))
	assert.Equal(t, http.StatusServiceUnavailable, SafeCode(NewUnavailable("x", nil)))
	assert.Equal(t, http.StatusInternalServerError, SafeCode(errors.New("boom")))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFound("x"))))
	assert.False(t, IsNotFound(NewBadRequest("x")))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("table missing")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "table missing")
	assert.NotContains(t, err.Message, "table")
}
