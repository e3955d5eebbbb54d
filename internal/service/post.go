package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
)

type PostService struct {
	postRepo repository.PostRepository
	now      func() time.Time
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo, now: time.Now}
}

// Create stores a note tagged with the author's email.
func (s *PostService) Create(ctx context.Context, authorEmail string, req model.CreatePostRequest) (*model.Post, error) {
	body := strings.TrimSpace(req.Body)
	title := strings.TrimSpace(req.Title)
	if body == "" {
		return nil, model.ErrPostBodyRequired
	}
	if len(body) > model.MaxPostBodyLength || len(title) > model.MaxPostTitleLength {
		return nil, model.ErrPostTooLong
	}

	post := &model.Post{
		ID:          uuid.NewString(),
		Title:       title,
		Body:        body,
		AuthorEmail: model.NormalizeEmail(authorEmail),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// List returns the newest posts; authorEmail narrows it to one author.
func (s *PostService) List(ctx context.Context, authorEmail string, limit, offset int) ([]model.Post, error) {
	if limit <= 0 {
		limit = model.DefaultPostLimit
	}
	if limit > model.MaxPostLimit {
		limit = model.MaxPostLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.postRepo.List(ctx, model.NormalizeEmail(authorEmail), limit, offset)
}

// Delete only succeeds for the post's author.
func (s *PostService) Delete(ctx context.Context, authorEmail, id string) error {
	return s.postRepo.Delete(ctx, id, model.NormalizeEmail(authorEmail))
}
