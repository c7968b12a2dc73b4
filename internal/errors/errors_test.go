package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("update record: %w", Forbidden("record belongs to another reader"))

	assert.True(t, Is(err, ErrForbidden))
	assert.False(t, Is(err, ErrNotFound))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFoundf("record %s not found", "rec-1"), http.StatusNotFound},
		{AlreadyExists("already on list"), http.StatusConflict},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{Validationf("rating %.1f out of range", 11.0), http.StatusBadRequest},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{Internal("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodeInternal, "save record")

	assert.Equal(t, "save record: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrInternal))
}

func TestValidationWithDetails(t *testing.T) {
	err := ValidationWithDetails("invalid update", map[string]string{"rating": "must be between 1.0 and 10.0"})

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, map[string]string{"rating": "must be between 1.0 and 10.0"}, err.Details)
}
