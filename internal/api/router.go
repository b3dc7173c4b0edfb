package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/testopsbot/internal/api/middleware"
	"github.com/kiranshivaraju/testopsbot/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	AdminAuth *mw.AdminAuth
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	ListAllowedUsers http.HandlerFunc
	AllowUser        http.HandlerFunc
	DisallowUser     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	} else {
		r.Get("/metrics", orNotImplemented(nil))
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.AdminAuth.Authenticate)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Get("/api/v1/admin/allowed-users", orNotImplemented(deps.ListAllowedUsers))
		r.Post("/api/v1/admin/allowed-users", orNotImplemented(deps.AllowUser))
		r.Delete("/api/v1/admin/allowed-users/{username}", orNotImplemented(deps.DisallowUser))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, response.CodeNotImplemented, "Endpoint not yet implemented", nil)
	}
}
