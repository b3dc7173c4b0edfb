package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/testopsbot/internal/api/response"
	"github.com/kiranshivaraju/testopsbot/internal/bot"
)

// AllowList is the subset of the store the admin endpoints need.
type AllowList interface {
	AddAllowedUser(ctx context.Context, username string) error
	RemoveAllowedUser(ctx context.Context, username string) (bool, error)
	ListAllowedUsers(ctx context.Context) ([]string, error)
}

type allowedUser struct {
	Username string `json:"username"`
}

// NewListAllowedUsersHandler returns GET /api/v1/admin/allowed-users.
func NewListAllowedUsersHandler(s AllowList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := s.ListAllowedUsers(r.Context())
		if err != nil {
			slog.Error("list allowed users failed", "error", err)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				"Failed to list allowed users", nil)
			return
		}

		users := make([]allowedUser, 0, len(names))
		for _, n := range names {
			users = append(users, allowedUser{Username: n})
		}
		response.List(w, users)
	}
}

// NewAllowUserHandler returns POST /api/v1/admin/allowed-users.
// Adding a user twice is not an error.
func NewAllowUserHandler(s AllowList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req allowedUser
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeValidation, "Invalid JSON body", nil)
			return
		}

		name, ok := bot.NormaliseUsername(req.Username)
		if !ok {
			response.Error(w, http.StatusBadRequest, response.CodeValidation,
				"username must contain letters and digits only", map[string]string{"username": req.Username})
			return
		}

		if err := s.AddAllowedUser(r.Context(), name); err != nil {
			slog.Error("allow user failed", "username", name, "error", err)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				"Failed to allow user", nil)
			return
		}

		slog.Info("user allowed via admin api", "username", name)
		response.Created(w, allowedUser{Username: name})
	}
}

// NewDisallowUserHandler returns DELETE /api/v1/admin/allowed-users/{username}.
func NewDisallowUserHandler(s AllowList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "username")
		name, ok := bot.NormaliseUsername(raw)
		if !ok {
			response.Error(w, http.StatusBadRequest, response.CodeValidation,
				"username must contain letters and digits only", map[string]string{"username": raw})
			return
		}

		removed, err := s.RemoveAllowedUser(r.Context(), name)
		if err != nil {
			slog.Error("disallow user failed", "username", name, "error", err)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				"Failed to disallow user", nil)
			return
		}
		if !removed {
			response.Error(w, http.StatusNotFound, response.CodeNotFound,
				"User is not on the allow-list", nil)
			return
		}

		slog.Info("user disallowed via admin api", "username", name)
		response.JSON(w, allowedUser{Username: name})
	}
}
