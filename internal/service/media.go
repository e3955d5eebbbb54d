package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // registers the WebP decoder used by imaging.Decode

	domain "github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/storage"
)

// MediaService normalizes uploaded images and stores them in the bucket.
type MediaService struct {
	bucket storage.Bucket
}

// NewMediaService accepts a nil bucket; uploads then fail with ErrStorageDisabled.
func NewMediaService(bucket storage.Bucket) *MediaService {
	return &MediaService{bucket: bucket}
}

// UploadAvatar enforces size/type, normalizes to 200x200 JPEG, and uploads it.
func (s *MediaService) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	if s.bucket == nil {
		return nil, domain.ErrStorageDisabled
	}
	data, _, err := readAndValidateImage(file, header, domain.MaxAvatarSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := fillToJPEG(data, domain.AvatarWidth, domain.AvatarHeight, 85)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, domain.AvatarFolder, jpegBytes)
}

// UploadLessonImage keeps the aspect ratio and caps the longer side.
func (s *MediaService) UploadLessonImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	if s.bucket == nil {
		return nil, domain.ErrStorageDisabled
	}
	data, _, err := readAndValidateImage(file, header, domain.MaxLessonImageSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := fitToJPEG(data, domain.LessonImageMaxSide, 85)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, domain.LessonImageFolder, jpegBytes)
}

func (s *MediaService) put(ctx context.Context, folder string, body []byte) (*domain.UploadResult, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), domain.ImageExt)
	url, err := s.bucket.Put(ctx, key, body, domain.ContentTypeJPEG, domain.ImageCacheControl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUploadFailed, key, err)
	}
	return &domain.UploadResult{URL: url, Key: key}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, "", domain.ErrInvalidImageType
	}

	return data, contentType, nil
}

// fillToJPEG center-crops to exactly width x height.
func fillToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}
	return encodeJPEG(imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), quality)
}

// fitToJPEG downsizes so neither side exceeds maxSide. Smaller images are kept as is.
func fitToJPEG(data []byte, maxSide, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}
	b := img.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}
	return encodeJPEG(img, quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
