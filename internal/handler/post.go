package handler

import (
	"net/http"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
)

type PostHandler struct {
	postService *service.PostService
	log         *logger.Logger
}

func NewPostHandler(postService *service.PostService, log *logger.Logger) *PostHandler {
	return &PostHandler{postService: postService, log: log}
}

// Create handles POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), id.Email, req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create post", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// List handles GET /posts
// Query: limit, offset.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context(), "", queryInt(r, "limit", model.DefaultPostLimit), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// ListMine handles GET /posts/mine
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	posts, err := h.postService.List(r.Context(), id.Email, queryInt(r, "limit", model.DefaultPostLimit), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list posts", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetByID handles GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	post, err := h.postService.GetByID(r.Context(), postID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
// Only the author can delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}
	if err := h.postService.Delete(r.Context(), id.Email, postID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete post", "post_id", postID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}
