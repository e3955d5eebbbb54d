package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
)

type UserHandler struct {
	accounts *service.AccountService
	log      *logger.Logger
}

func NewUserHandler(accounts *service.AccountService, log *logger.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, log: log}
}

// Sync handles POST /users
// Creates the caller's account on first sight and returns the stored account.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.SyncAccountRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Sync(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to sync account", "uid", id.SubjectID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

// Status handles GET /users/status/{email}
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	status, err := h.accounts.Status(r.Context(), id.Email, chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get account status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// UpdateProfile handles PUT /users/update-profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target := req.UID
	if target == "" {
		target = id.SubjectID
	}

	n, err := h.accounts.UpdateProfile(r.Context(), id.SubjectID, target, req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update profile", "uid", id.SubjectID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"modifiedCount": n})
}

// List handles GET /admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accounts)
}

// Patch handles PATCH /admin/users/{email}
// Only role and isPremium can be changed.
func (h *UserHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch model.AccountPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	n, err := h.accounts.SetRoleOrPremium(r.Context(), chi.URLParam(r, "email"), patch)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"modifiedCount": n})
}

// Delete handles DELETE /admin/users/{email}
// Removes the account and every lesson it created.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	removed, err := h.accounts.DeleteAccount(r.Context(), email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to delete user", "email", email, "lessons_removed", removed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "User deleted successfully",
		"lessonsDeleted": removed,
	})
}
