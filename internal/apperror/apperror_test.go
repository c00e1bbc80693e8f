package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("attempt %d not found", 7), http.StatusNotFound},
		{"forbidden", Forbidden("not yours"), http.StatusForbidden},
		{"invalid state", InvalidState("attempt is abandoned"), http.StatusBadRequest},
		{"conflict", Conflict("already submitted"), http.StatusConflict},
		{"external", External(errors.New("timeout"), "judge unavailable"), http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("aptitude already submitted for attempt %d", 3)
	wrapped := fmt.Errorf("submit aptitude: %w", base)

	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.Equal(t, "submit aptitude: aptitude already submitted for attempt 3", wrapped.Error())
}

func TestExternalUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := External(cause, "code execution failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "code execution failed: connection refused", err.Error())
	assert.Equal(t, "external_dependency", err.Kind.String())
}
