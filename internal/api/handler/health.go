// Package handler holds the HTTP handlers of the operational API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/api/response"
)

const probeTimeout = 3 * time.Second

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// Check is one named dependency probe run by the health endpoint.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// NewHealthHandler returns GET /api/v1/health. Any failing probe turns the
// response into 503 DEGRADED. activeMonitors may be nil.
func NewHealthHandler(checks []Check, activeMonitors func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]string, len(checks))
		degraded := false

		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			err := c.Probe(ctx)
			cancel()
			if err != nil {
				slog.Warn("health probe failed", "service", c.Name, "error", err)
				services[c.Name] = statusDegraded
				degraded = true
				continue
			}
			services[c.Name] = statusOK
		}

		active := 0
		if activeMonitors != nil {
			active = activeMonitors()
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, response.CodeDegraded,
				"One or more services degraded", map[string]any{
					"services":        services,
					"active_monitors": active,
				})
			return
		}

		response.JSON(w, map[string]any{
			"status":          statusOK,
			"services":        services,
			"active_monitors": active,
		})
	}
}
