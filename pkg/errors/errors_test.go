package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrQueryTooShort, ErrUnauthorized,
		ErrForbidden, ErrRateLimited, ErrInternal, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	withInner := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Equal(t, "INTERNAL_ERROR: something broke: db connection lost", withInner.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "gone"}
	assert.Equal(t, "NOT_FOUND: gone", bare.Error())
}

func TestQueryTooShort(t *testing.T) {
	err := QueryTooShort(2)

	assert.Equal(t, "QUERY_TOO_SHORT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, ErrQueryTooShort)
	assert.Contains(t, err.Message, "2 characters")
}

func TestInvalidParameter(t *testing.T) {
	err := InvalidParameter("priceMin", "must not be negative")

	assert.Equal(t, "INVALID_PARAMETER", err.Code)
	assert.Equal(t, "priceMin must not be negative", err.Message)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("history entry", "x"), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("outer: %w", QueryTooShort(2)), http.StatusBadRequest},
		{"not found sentinel", ErrNotFound, http.StatusNotFound},
		{"query too short sentinel", ErrQueryTooShort, http.StatusBadRequest},
		{"unauthorized", Unauthorized("login"), http.StatusUnauthorized},
		{"rate limited", RateLimited(), http.StatusTooManyRequests},
		{"rate limited sentinel", ErrRateLimited, http.StatusTooManyRequests},
		{"service unavailable", Wrap(ErrServiceUnavail, "vendor service"), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := Internal(cause)

	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
}
