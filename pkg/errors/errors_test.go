package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect int
	}{
		{"app error wins", fmt.Errorf("wrapped: %w", New(ErrInternal, http.StatusTeapot, "x")), http.StatusTeapot},
		{"not found", fmt.Errorf("get: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"empty query", ErrEmptyQuery, http.StatusBadRequest},
		{"not enough documents", ErrNotEnoughDocuments, http.StatusBadRequest},
		{"not ready", ErrIndexNotReady, http.StatusServiceUnavailable},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("loading: %w", Newf(ErrNotEnoughDocuments, http.StatusBadRequest, "have %d", 1))

	assert.ErrorIs(t, err, ErrNotEnoughDocuments)
	assert.Equal(t, "have 1", Message(err))
	assert.Contains(t, err.Error(), "not enough documents: have 1")
}

func TestMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("db password leaked")))
	assert.Equal(t, "empty query", Message(ErrEmptyQuery))
}
