package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusByKind(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("again"), http.StatusConflict},
		{Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("Post not found"))

	got := As(wrapped)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, "Post not found", got.Message)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
}

func TestAsTreatsPlainErrorsAsInternal(t *testing.T) {
	cause := errors.New("connection reset")

	got := As(cause)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(cause))
	assert.ErrorIs(t, got, cause)
}

func TestBody(t *testing.T) {
	body := Body(Validation("Validation error", "title is required"), false)
	assert.Equal(t, "Validation error", body["message"])
	assert.Equal(t, []string{"title is required"}, body["errors"])

	body = Body(errors.New("dial tcp: refused"), false)
	assert.Equal(t, "Something went wrong!", body["message"])
	assert.NotContains(t, body, "error")

	body = Body(errors.New("dial tcp: refused"), true)
	assert.Contains(t, body["error"], "dial tcp")
}
