package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"all fields", &AppError{Op: "CallService.Get", Message: "failed to load", Err: cause}, "CallService.Get: failed to load: dial tcp: refused"},
		{"op and message", &AppError{Op: "CallService.Get", Message: "call not found"}, "CallService.Get: call not found"},
		{"op and err", &AppError{Op: "CallService.Get", Err: cause}, "CallService.Get: dial tcp: refused"},
		{"message only", &AppError{Message: "bad input"}, "bad input"},
		{"empty", &AppError{}, "error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(E(CodeInvalidArgument, "op", "bad", nil)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(E(CodeUpstream, "op", "llm down", nil)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))

	wrapped := fmt.Errorf("handler: %w", E(CodeForbidden, "op", "forbidden", nil))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(wrapped))
	assert.True(t, IsCode(wrapped, CodeForbidden))
}
