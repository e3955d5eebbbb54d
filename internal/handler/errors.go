package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/identity"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/transport/http/middleware"
)

// maxJSONBody caps request bodies for JSON endpoints.
const maxJSONBody = 1 << 20

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// domainErrors maps sentinel errors to responses. First match wins.
var domainErrors = []errorMapping{
	{model.ErrAccountNotFound, http.StatusNotFound, httputil.ErrCodeNotFound, "Account not found"},
	{model.ErrLessonNotFound, http.StatusNotFound, httputil.ErrCodeNotFound, "Lesson not found"},
	{model.ErrPostNotFound, http.StatusNotFound, httputil.ErrCodeNotFound, "Post not found"},

	{model.ErrForbidden, http.StatusForbidden, httputil.ErrCodeForbidden, "You are not allowed to do that"},
	{model.ErrNotPostOwner, http.StatusForbidden, httputil.ErrCodeForbidden, "You can only delete your own posts"},
	{model.ErrPremiumRequired, http.StatusForbidden, httputil.ErrCodeForbidden, "Premium account required for premium lessons"},

	{model.ErrEmailTaken, http.StatusConflict, httputil.ErrCodeConflict, "Email already belongs to another account"},
	{model.ErrAlreadyPremium, http.StatusConflict, httputil.ErrCodeConflict, "Account is already premium"},

	{model.ErrTitleRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Title is required"},
	{model.ErrTitleTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Title too long (max 200 characters)"},
	{model.ErrInvalidVisibility, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Visibility must be public or private"},
	{model.ErrInvalidAccessLevel, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Access level must be free or premium"},
	{model.ErrInvalidRole, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Role must be user or admin"},
	{model.ErrEmptyPatch, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Nothing to update"},
	{model.ErrEmailRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Email is required"},
	{model.ErrNameRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Name is required"},
	{model.ErrCommentRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Comment text is required"},
	{model.ErrCommentTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Comment too long (max 1000 characters)"},
	{model.ErrPostBodyRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Post body is required"},
	{model.ErrPostTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Post too long"},
	{model.ErrInvalidSignature, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Invalid webhook signature"},
	{model.ErrInvalidWebhookPayload, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Invalid webhook payload"},
	{model.ErrFileTooLarge, http.StatusBadRequest, model.CodeFileTooLarge, "File exceeds the size limit"},
	{model.ErrInvalidImageType, http.StatusBadRequest, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp"},

	{model.ErrUploadFailed, http.StatusBadGateway, model.CodeUploadFailed, "Failed to store the image"},
	{model.ErrStorageDisabled, http.StatusServiceUnavailable, httputil.ErrCodeUnavailable, "Uploads are not configured"},
	{model.ErrPaymentNotConfigured, http.StatusServiceUnavailable, httputil.ErrCodeUnavailable, "Payments are not configured"},
}

// writeServiceError maps a service error to its HTTP response. Unknown
// errors are logged and reported as 500 with the given fallback message.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallback string, kv ...interface{}) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				log.Error(fallback, append(kv, "error", err)...)
			}
			httputil.WriteError(w, m.status, m.code, m.message)
			return
		}
	}
	if errors.Is(err, model.ErrIndexDivergence) {
		log.Error("lesson index divergence surfaced to client", append(kv, "error", err)...)
	} else {
		log.Error(fallback, append(kv, "error", err)...)
	}
	httputil.WriteInternalError(w, fallback)
}

// requireIdentity returns the verified caller or writes a 401.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	return id, true
}

// decodeJSON reads a JSON body or writes a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// pathID reads the {id} URL parameter or writes a 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid "+entity+" ID")
		return "", false
	}
	return id.String(), true
}
