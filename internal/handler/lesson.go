package handler

import (
	"net/http"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/transport/http/middleware"
)

type LessonHandler struct {
	lessons *service.LessonService
	log     *logger.Logger
}

func NewLessonHandler(lessons *service.LessonService, log *logger.Logger) *LessonHandler {
	return &LessonHandler{lessons: lessons, log: log}
}

// ListPublic handles GET /lessons
// Query: category, emotionalTone, search, sort (newest|oldest|most-saved|most-liked), page, limit.
func (h *LessonHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	res, err := h.lessons.ListPublic(r.Context(), listParams(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list lessons")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Get handles GET /lessons/{id}
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	var viewer string
	if id, ok := middleware.GetIdentityFromContext(r.Context()); ok {
		viewer = id.Email
	}

	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	lesson, err := h.lessons.Get(r.Context(), viewer, lessonID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get lesson")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lesson)
}

// Create handles POST /dashboard/add-lesson
func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var draft model.LessonDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	lesson, err := h.lessons.Create(r.Context(), id.Email, draft)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create lesson", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, lesson)
}

// ListMine handles GET /dashboard/my-lessons
func (h *LessonHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	lessons, err := h.lessons.ListMine(r.Context(), id.Email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list lessons", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lessons)
}

// ListFavorites handles GET /dashboard/my-favorites
func (h *LessonHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	lessons, err := h.lessons.ListFavorites(r.Context(), id.Email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list favorites", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lessons)
}

// Update handles PUT /dashboard/my-lessons/{id}
func (h *LessonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var patch model.LessonPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}
	lesson, err := h.lessons.Update(r.Context(), id.Email, lessonID, patch)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update lesson", "lesson_id", lessonID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lesson)
}

// SetAccessLevel handles PATCH /dashboard/my-lessons/{id}/access-level
func (h *LessonHandler) SetAccessLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.AccessLevelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}
	lesson, err := h.lessons.SetAccessLevel(r.Context(), id.Email, lessonID, req.AccessLevel)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update access level", "lesson_id", lessonID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lesson)
}

// Delete handles DELETE /dashboard/my-lessons/{id} and DELETE /admin/lessons/{id}.
// The service allows the creator or an admin.
func (h *LessonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}
	if err := h.lessons.Delete(r.Context(), id.Email, lessonID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete lesson", "lesson_id", lessonID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Lesson deleted successfully",
	})
}

// ToggleLike handles POST /lessons/{id}/like
func (h *LessonHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	res, err := h.lessons.ToggleLike(r.Context(), id.Email, lessonID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to like lesson")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"liked":      res.Active,
		"likesCount": res.Count,
	})
}

// ToggleFavorite handles POST /lessons/{id}/favorite
func (h *LessonHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	res, err := h.lessons.ToggleFavorite(r.Context(), id.Email, lessonID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to favorite lesson")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"favorited":      res.Active,
		"favoritesCount": res.Count,
	})
}

// AddComment handles POST /lessons/{id}/comments
func (h *LessonHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	var req model.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.lessons.AddComment(r.Context(), id.Email, lessonID, req.Text)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Report handles POST /lessons/{id}/report
func (h *LessonHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	var req model.ReportRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.lessons.Report(r.Context(), id.Email, lessonID, req.Reason)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to report lesson")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, report)
}

// ListAll handles GET /admin/lessons
func (h *LessonHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.lessons.ListAll(r.Context(), listParams(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list lessons")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// ListReported handles GET /admin/reported-lessons
func (h *LessonHandler) ListReported(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.ListReported(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list reported lessons")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lessons)
}

// ListReports handles GET /admin/lessons/{id}/reports
func (h *LessonHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	reports, err := h.lessons.ListReports(r.Context(), lessonID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list reports")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reports)
}

// ClearReport handles PATCH /admin/lessons/{id}/clear-report
func (h *LessonHandler) ClearReport(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	lesson, err := h.lessons.ClearReport(r.Context(), lessonID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to clear report")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lesson)
}

func listParams(r *http.Request) service.ListParams {
	q := r.URL.Query()
	return service.ListParams{
		Category:      q.Get("category"),
		EmotionalTone: q.Get("emotionalTone"),
		Search:        q.Get("search"),
		Sort:          q.Get("sort"),
		Page:          queryInt(r, "page", 1),
		Limit:         queryInt(r, "limit", model.DefaultPageLimit),
	}
}
