package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := RateLimited("Rate limited. Next sync available at 10:00")

	assert.True(t, Is(err, ErrRateLimited))
	assert.False(t, Is(err, ErrNotConfigured))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(cause, CodeTransportFailure, "fetch kindle library")

	assert.Equal(t, "fetch kindle library: dial tcp: connection refused", err.Error())
	assert.Equal(t, cause, Unwrap(err))
	assert.True(t, Is(err, ErrTransportFailure))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeAuthFailure, CodeOf(fmt.Errorf("outer: %w", AuthFailure("expired cookies"))))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeNotConfigured, http.StatusPreconditionFailed},
		{CodeAuthFailure, http.StatusUnauthorized},
		{CodeTransportFailure, http.StatusBadGateway},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeReconciliationFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}
