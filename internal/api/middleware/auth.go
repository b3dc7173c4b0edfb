package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/testopsbot/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth guards the admin endpoints with a single bearer key whose
// bcrypt hash comes from configuration.
type AdminAuth struct {
	hash []byte
}

// NewAdminAuth creates the middleware. An empty hash disables the admin API.
func NewAdminAuth(hash string) *AdminAuth {
	return &AdminAuth{hash: []byte(strings.TrimSpace(hash))}
}

// Enabled reports whether an admin key is configured.
func (a *AdminAuth) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Authenticate validates the Bearer token against the configured hash and
// marks the request context as admin.
func (a *AdminAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			response.Error(w, http.StatusNotImplemented,
				response.CodeNotImplemented, "Admin API is not configured", nil)
			return
		}

		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Missing or invalid Authorization header", nil)
			return
		}

		if err := bcrypt.CompareHashAndPassword(a.hash, []byte(rawKey)); err != nil {
			slog.Warn("admin key rejected",
				"request_id", GetRequestID(r),
				"remote_addr", r.RemoteAddr,
			)
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Invalid API key", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(setAdmin(r.Context())))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
