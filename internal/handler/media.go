package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
	log          *logger.Logger
}

func NewMediaHandler(mediaService *service.MediaService, log *logger.Logger) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, log: log}
}

type uploadFunc func(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)

// UploadImage handles POST /upload/image (multipart field "image").
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, model.MaxLessonImageSizeBytes, h.mediaService.UploadLessonImage)
}

// UploadAvatar handles POST /upload/avatar (multipart field "image").
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, model.MaxAvatarSizeBytes, h.mediaService.UploadAvatar)
}

func (h *MediaHandler) upload(w http.ResponseWriter, r *http.Request, maxSize int64, fn uploadFunc) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	// Leave room for multipart framing on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	res, err := fn(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to upload image", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
