package model

import (
	"errors"
	"time"
)

// Post is a short note authored by an account. It is tagged with the
// author's email and has no other references.
type Post struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	AuthorEmail string    `db:"author_email" json:"authorEmail"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Post constants
const (
	MaxPostBodyLength  = 5000
	MaxPostTitleLength = 200
	DefaultPostLimit   = 20
	MaxPostLimit       = 100
)

// Post errors
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("not the owner of this post")
	ErrPostBodyRequired = errors.New("post body is required")
	ErrPostTooLong      = errors.New("post too long")
)
