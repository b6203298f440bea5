package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeDispatch(t *testing.T) {
	t.Run("Is matches the carried code", func(t *testing.T) {
		err := New(CodeNotFound, "post missing")
		assert.True(t, Is(err, CodeNotFound))
		assert.False(t, Is(err, CodeValidation))
	})

	t.Run("Is sees through wrapping", func(t *testing.T) {
		inner := Unauthenticated("no session")
		wrapped := fmt.Errorf("load dashboard: %w", inner)
		assert.True(t, Is(wrapped, CodeUnauthenticated))
	})

	t.Run("plain errors are outside the declared set", func(t *testing.T) {
		_, ok := CodeOf(errors.New("boom"))
		assert.False(t, ok)
		assert.False(t, Is(errors.New("boom"), CodeInternal))
	})
}

func TestConstructors(t *testing.T) {
	t.Run("NotFound carries entity and id", func(t *testing.T) {
		err := NotFound("post", "p-123")
		assert.Equal(t, CodeNotFound, err.Code)
		assert.Equal(t, "post", err.Entity)
		assert.Equal(t, "p-123", err.ID)
		assert.Equal(t, "post p-123 not found", err.Message)
	})

	t.Run("Validation carries offending field", func(t *testing.T) {
		err := Validation("title", "title is required")
		assert.Equal(t, CodeValidation, err.Code)
		assert.Equal(t, "title", err.Field)
	})

	t.Run("Wrap preserves cause for logging", func(t *testing.T) {
		cause := errors.New("pg: connection refused")
		err := Wrap(CodeInternal, "failed to save post", cause)
		require.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "failed to save post")
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "title is required", Message(Validation("title", "title is required"), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:        http.StatusNotFound,
		CodeValidation:      http.StatusBadRequest,
		CodeBadRequest:      http.StatusBadRequest,
		CodeUnauthenticated: http.StatusUnauthorized,
		CodeUnauthorized:    http.StatusForbidden,
		CodeConflict:        http.StatusConflict,
		CodeInternal:        http.StatusInternalServerError,
		Code("custom"):      http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
