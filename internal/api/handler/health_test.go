package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth_ProbesGetDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandler([]Check{{
		Name: "database",
		Probe: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		},
	}}, nil)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hasDeadline)
	assert.Contains(t, rec.Body.String(), `"active_monitors":0`)
}

func TestHealth_NoChecks(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, func() int { return 5 })(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_monitors":5`)
}
